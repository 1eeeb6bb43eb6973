package server

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shinji-kodama/devserve/internal/model"
)

// NoCacheHeaders are set on every response.
var NoCacheHeaders = map[string]string{
	"Cache-Control": "no-store, no-cache, must-revalidate, max-age=0",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

// RequestIDHeader echoes the ID logged for the request.
const RequestIDHeader = "X-Request-Id"

// noCacheWriter sets the no-cache headers at the moment the status line is
// written, after the file server has set its own headers. Setting them up
// front is not enough: net/http drops Cache-Control when it serves an error
// such as a 404.
type noCacheWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *noCacheWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= 200 {
		h := w.Header()
		for k, v := range NoCacheHeaders {
			h.Set(k, v)
		}
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *noCacheWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// ReadFrom keeps the sendfile path http.FileServer uses for file bodies.
func (w *noCacheWriter) ReadFrom(src io.Reader) (int64, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return readFrom(w.ResponseWriter, src)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *noCacheWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// NoCache wraps next so every response, whatever the path or method,
// carries NoCacheHeaders.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nw := &noCacheWriter{ResponseWriter: w}
		next.ServeHTTP(nw, r)
		if !nw.wroteHeader {
			// Handler wrote nothing; the implicit 200 still gets the headers.
			nw.WriteHeader(http.StatusOK)
		}
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) ReadFrom(src io.Reader) (int64, error) {
	return readFrom(rw.ResponseWriter, src)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// readFrom copies src into w, through w's own ReadFrom when it has one.
func readFrom(w http.ResponseWriter, src io.Reader) (int64, error) {
	if rf, ok := w.(io.ReaderFrom); ok {
		return rf.ReadFrom(src)
	}
	return io.Copy(writerOnly{w}, src)
}

// writerOnly hides any ReadFrom method so io.Copy cannot recurse into it.
type writerOnly struct {
	io.Writer
}

// AccessLog logs method, path, status, duration and a request ID at debug
// level, and echoes the ID in RequestIDHeader.
func AccessLog(logger model.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start))
	})
}
