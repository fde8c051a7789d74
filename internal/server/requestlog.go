package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// slogFormatter writes chi access logs through the application logger.
type slogFormatter struct {
	logger *slog.Logger
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&slogFormatter{logger: logger})
}

func (f *slogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &slogEntry{
		logger: f.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		),
		request: r,
	}
}

type slogEntry struct {
	logger  *slog.Logger
	request *http.Request
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	e.logger.Log(e.request.Context(), level, "request served",
		"status", status,
		"bytes", bytes,
		"duration", elapsed,
	)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panicked", "panic", v, "stack", string(stack))
}
