// Package api holds HTTP middleware shared by every route.
package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Recovery turns a handler panic into a 500 and prints the stack.
func Recovery(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}

// quietPaths are polled by health checks and scrapers and never logged.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AccessLog logs one line per request to the standard logger.
func AccessLog(next http.Handler) http.Handler {
	return NewAccessLog(log.New(log.Writer(), "[server] ", log.Flags()|log.Lmsgprefix))(next)
}

// NewAccessLog returns request logging middleware writing to logger.
func NewAccessLog(logger middleware.LoggerInterface) func(http.Handler) http.Handler {
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true})
	return func(next http.Handler) http.Handler {
		logged := requestLogger(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			logged.ServeHTTP(w, r)
		})
	}
}
