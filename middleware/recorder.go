package middleware

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
)

// responseRecorder streams the response through to the client while
// keeping the status code and up to limit bytes of the body for contract
// validation after the handler returns.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	body      bytes.Buffer
	limit     int64
	truncated bool
	hijacked  bool
}

func newResponseRecorder(w http.ResponseWriter, limit int64) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK, limit: limit}
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(p []byte) (int, error) {
	if !rw.truncated {
		remain := rw.limit - int64(rw.body.Len())
		if remain >= int64(len(p)) {
			rw.body.Write(p)
		} else {
			if remain > 0 {
				rw.body.Write(p[:remain])
			}
			rw.truncated = true
		}
	}
	return rw.ResponseWriter.Write(p)
}

func (rw *responseRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support http.Hijacker")
	}
	conn, buf, err := hijacker.Hijack()
	if err == nil {
		rw.hijacked = true
	}
	return conn, buf, err
}
