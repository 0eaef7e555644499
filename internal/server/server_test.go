package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	workerpool "github.com/azargarov/webpool"
	"github.com/azargarov/webpool/internal/config"
)

const (
	indexBody    = "<h1>Hello!</h1>\n"
	notFoundBody = "<h1>Oops!</h1>\n"
)

func testConfig(t *testing.T, sleep time.Duration) config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IndexFile), []byte(indexBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, NotFoundFile), []byte(notFoundBody), 0o644))

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DocRoot = root
	cfg.SleepDelay = sleep
	cfg.ReadTimeout = 2 * time.Second
	cfg.LogClaims = false
	return cfg
}

func newPool(t *testing.T, size int) *workerpool.Pool {
	t.Helper()
	p, err := workerpool.New(size)
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p
}

// startServer serves cfg.Addr (an ephemeral port) and returns the bound
// address.
func startServer(t *testing.T, cfg config.Config, sub Submitter) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(cfg, sub)
	require.Nil(t, srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, time.Millisecond)
	addr := srv.Addr().String()
	require.NotEqual(t, cfg.Addr, addr, "ephemeral port must be resolved")
	return addr
}

// roundTrip sends raw and returns everything the server wrote before
// closing the connection.
func roundTrip(addr, raw string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		return "", err
	}
	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}
	resp, err := io.ReadAll(conn)
	return string(resp), err
}

func expected(status, body string) string {
	return status + "\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
}

func TestFormatResponse(t *testing.T) {
	got := formatResponse(StatusOK, []byte("hi"))
	require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi", string(got))

	got = formatResponse(StatusNotFound, nil)
	require.Equal(t, "HTTP/1.1 404 NOT FOUND\r\nContent-Length: 0\r\n\r\n", string(got))
}

func TestMatch(t *testing.T) {
	s := New(config.Default(), nil)
	tests := []struct {
		req    string
		status string
		delay  time.Duration
	}{
		{"GET / HTTP/1.1\r\nHost: x\r\n\r\n", StatusOK, 0},
		{"GET /sleep HTTP/1.1\r\n\r\n", StatusOK, config.DefaultSleepDelay},
		{"GET /index.html HTTP/1.1\r\n", StatusNotFound, 0},
		{"POST / HTTP/1.1\r\n", StatusNotFound, 0},
		{"GET / HTTP/1.0\r\n", StatusNotFound, 0},
		{"", StatusNotFound, 0},
	}
	for _, tc := range tests {
		r := s.match([]byte(tc.req))
		require.Equal(t, tc.status, r.status, "request %q", tc.req)
		require.Equal(t, tc.delay, r.delay, "request %q", tc.req)
	}
}

func TestServeIndex(t *testing.T) {
	cfg := testConfig(t, 0)
	addr := startServer(t, cfg, newPool(t, 2))

	resp, err := roundTrip(addr, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	require.NoError(t, err)
	require.Equal(t, expected(StatusOK, indexBody), resp)
}

func TestServeNotFound(t *testing.T) {
	cfg := testConfig(t, 0)
	addr := startServer(t, cfg, newPool(t, 2))

	resp, err := roundTrip(addr, "DELETE /nothing HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	require.Equal(t, expected(StatusNotFound, notFoundBody), resp)
}

// 5 slow and 5 fast requests on 4 workers finish well before the serial
// time of 5 sleeps.
func testParallelRequests(t *testing.T, sleep time.Duration) {
	cfg := testConfig(t, sleep)
	addr := startServer(t, cfg, newPool(t, 4))

	start := time.Now()
	var g errgroup.Group
	for i := range 10 {
		path := "/"
		if i%2 == 0 {
			path = "/sleep"
		}
		g.Go(func() error {
			resp, err := roundTrip(addr, "GET "+path+" HTTP/1.1\r\n\r\n")
			if err != nil {
				return err
			}
			if resp != expected(StatusOK, indexBody) {
				return errors.New("unexpected response for " + path + ": " + strconv.Quote(resp))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Less(t, time.Since(start), 3*sleep)
}

func TestParallelRequests(t *testing.T) {
	testParallelRequests(t, 400*time.Millisecond)
}

func TestParallelRequestsFullDelay(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the default 5s sleep delay")
	}
	testParallelRequests(t, config.DefaultSleepDelay)
}

func TestSlowRequestDoesNotBlockOthers(t *testing.T) {
	cfg := testConfig(t, time.Second)
	addr := startServer(t, cfg, newPool(t, 2))

	slow := make(chan error, 1)
	go func() {
		_, err := roundTrip(addr, "GET /sleep HTTP/1.1\r\n\r\n")
		slow <- err
	}()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	resp, err := roundTrip(addr, "GET / HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	require.Equal(t, expected(StatusOK, indexBody), resp)
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.NoError(t, <-slow)
}

func TestMissingFileClosesConnection(t *testing.T) {
	cfg := testConfig(t, 0)
	require.NoError(t, os.Remove(filepath.Join(cfg.DocRoot, NotFoundFile)))
	addr := startServer(t, cfg, newPool(t, 1))

	resp, err := roundTrip(addr, "GET /missing HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	require.Empty(t, resp)

	// the pool keeps serving
	resp, err = roundTrip(addr, "GET / HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	require.Equal(t, expected(StatusOK, indexBody), resp)
}

type failingSubmitter struct{}

func (failingSubmitter) Submit(workerpool.Job) error { return workerpool.ErrPoolClosed }

func TestSubmitFailureClosesConnection(t *testing.T) {
	cfg := testConfig(t, 0)
	addr := startServer(t, cfg, failingSubmitter{})

	// the request is never read, so the close may surface as a reset
	resp, _ := roundTrip(addr, "GET / HTTP/1.1\r\n\r\n")
	require.Empty(t, resp)
}

func TestServeReturnsListenError(t *testing.T) {
	cfg := testConfig(t, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg.Addr = ln.Addr().String()
	err = New(cfg, newPool(t, 1)).ListenAndServe(context.Background())
	require.Error(t, err)
}

func TestServeOnListener(t *testing.T) {
	cfg := testConfig(t, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(cfg, newPool(t, 1))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, time.Millisecond)
	require.Equal(t, ln.Addr().String(), srv.Addr().String())

	resp, err := roundTrip(srv.Addr().String(), "GET / HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	require.Equal(t, expected(StatusOK, indexBody), resp)

	cancel()
	require.NoError(t, <-errCh)
}
