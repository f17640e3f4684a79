package http

import (
	"compress/gzip"
	"net/http"
	"strings"
)

type gzipResponseWriter struct {
	http.ResponseWriter
	writer      *gzip.Writer
	wroteHeader bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.writer.Write(b)
}

func (w *gzipResponseWriter) Flush() {
	if w.writer != nil {
		_ = w.writer.Flush()
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func acceptsGzip(r *http.Request) bool {
	if r == nil {
		return false
	}
	encoding := r.Header.Get("Accept-Encoding")
	return strings.Contains(strings.ToLower(encoding), "gzip")
}

func isStreamRequest(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}
	path := r.URL.Path
	if strings.HasPrefix(path, "/ws") || strings.Contains(path, "/events") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func shouldSkipCompression(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return true
	}
	return isStreamRequest(r)
}

func appendVary(w http.ResponseWriter, field string) {
	w.Header().Add("Vary", field)
}

// responseRecorderFlusher lets the gzip writer forward Flush() calls while
// still satisfying http.ResponseWriter for handlers that stream partial
// output under compression.
type responseRecorderFlusher struct {
	http.ResponseWriter
	http.Flusher
}

func CompressionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipCompression(r) || !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}

			appendVary(w, "Accept-Encoding")
			w.Header().Set("Content-Encoding", "gzip")

			gz := gzip.NewWriter(w)
			defer gz.Close()

			gzWriter := &gzipResponseWriter{ResponseWriter: w, writer: gz}
			if flusher, ok := w.(http.Flusher); ok {
				gzWriter.ResponseWriter = &responseRecorderFlusher{ResponseWriter: w, Flusher: flusher}
			}
			next.ServeHTTP(gzWriter, r)
		})
	}
}
