package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response after a handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery turns handler panics into a logged error and a response from
// handler. A panic after the response has started (an event stream, for
// example) only aborts the connection.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := NewResponseWriter(w)
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("route", routeTemplate(r)),
					slog.Bool("response_started", wrapped.Written()),
				)

				if wrapped.Written() {
					panic(http.ErrAbortHandler)
				}
				handler(w, r, err)
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// PlainPanicHandler answers with a bare 500
func PlainPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
