package server

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

const (
	StatusOK       = "HTTP/1.1 200 OK"
	StatusNotFound = "HTTP/1.1 404 NOT FOUND"

	IndexFile    = "index.html"
	NotFoundFile = "404.html"
)

// route maps a raw request prefix to a response. delay is slept before
// the file is read.
type route struct {
	prefix []byte
	status string
	file   string
	delay  time.Duration
}

var notFound = route{status: StatusNotFound, file: NotFoundFile}

func defaultRoutes(sleep time.Duration) []route {
	return []route{
		{prefix: []byte("GET / HTTP/1.1\r\n"), status: StatusOK, file: IndexFile},
		{prefix: []byte("GET /sleep HTTP/1.1\r\n"), status: StatusOK, file: IndexFile, delay: sleep},
	}
}

// match returns the first route whose prefix starts req, or notFound.
func (s *Server) match(req []byte) route {
	for _, r := range s.routes {
		if bytes.HasPrefix(req, r.prefix) {
			return r
		}
	}
	return notFound
}

// handleConn serves one request and closes conn. It runs on a pool
// worker. Any error aborts the request: the connection is closed
// without a response.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := lg.FromContext(ctx).With(lg.String("remote", conn.RemoteAddr().String()))

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			logger.Error("set read deadline", lg.Any("error", err))
			return
		}
	}

	buf := make([]byte, s.cfg.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Error("read request", lg.Any("error", err))
		return
	}
	req := buf[:n]

	r := s.match(req)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	body, err := os.ReadFile(filepath.Join(s.cfg.DocRoot, r.file))
	if err != nil {
		logger.Error("read file", lg.String("file", r.file), lg.Any("error", err))
		return
	}

	if _, err := conn.Write(formatResponse(r.status, body)); err != nil {
		logger.Error("write response", lg.Any("error", err))
		return
	}

	logger.Info("request served",
		lg.String("request", requestLine(req)),
		lg.String("status", r.status),
		lg.Int("bytes", len(body)),
	)
}

// formatResponse builds "<status>\r\nContent-Length: <n>\r\n\r\n<body>".
func formatResponse(status string, body []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(status) + len(body) + 32)
	b.WriteString(status)
	b.WriteString("\r\nContent-Length: ")
	b.WriteString(strconv.Itoa(len(body)))
	b.WriteString("\r\n\r\n")
	b.Write(body)
	return b.Bytes()
}

// requestLine returns the first line of req for logging.
func requestLine(req []byte) string {
	if i := bytes.Index(req, []byte("\r\n")); i >= 0 {
		req = req[:i]
	}
	return fmt.Sprintf("%q", req)
}
