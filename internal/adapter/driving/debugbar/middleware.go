package debugbar

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const closingBody = "</body>"

// bufferedWriter holds the response until the handler returns so the bar can
// be injected and panels can still set cookies.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.status == 0 {
		bw.status = code
	}
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	if bw.status == 0 {
		bw.status = http.StatusOK
	}
	return bw.buf.Write(b)
}

// Middleware injects the rendered bar before </body> of successful HTML
// responses. Every other response passes through byte for byte.
func (b *Bar) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.skipped(r.URL.Path) || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		bw := &bufferedWriter{ResponseWriter: w}
		next.ServeHTTP(bw, r)

		status := bw.status
		if status == 0 {
			status = http.StatusOK
		}
		body := bw.buf.Bytes()

		if injectable(w.Header(), status, body) {
			bar, err := b.Render(w, r)
			if err != nil {
				b.logger.Error("debug bar render failed", "path", r.URL.Path, "error", err)
			} else {
				body = inject(body, bar)
				w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			}
		}

		w.WriteHeader(status)
		if _, err := w.Write(body); err != nil {
			b.logger.Debug("debug bar write failed", "error", err)
		}
	})
}

func injectable(h http.Header, status int, body []byte) bool {
	if status != http.StatusOK {
		return false
	}
	if h.Get("Content-Encoding") != "" {
		return false
	}
	ct := h.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	if !strings.HasPrefix(ct, "text/html") {
		return false
	}
	return bytes.Contains(body, []byte(closingBody))
}

// inject inserts bar before the last </body>.
func inject(body []byte, bar string) []byte {
	i := bytes.LastIndex(body, []byte(closingBody))
	if i < 0 {
		return body
	}
	out := make([]byte, 0, len(body)+len(bar))
	out = append(out, body[:i]...)
	out = append(out, bar...)
	out = append(out, body[i:]...)
	return out
}
