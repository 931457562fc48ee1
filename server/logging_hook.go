package server

import (
	"log"

	"daemonfield/session"
	"daemonfield/storage"
)

// loggerHook wraps an optional *storage.SessionLogger so dispatch can log
// unconditionally; a nil logger (no -dbPath configured) makes every call a
// no-op instead of forcing a nil-check at every call site.
type loggerHook struct {
	logger *storage.SessionLogger
}

func (h *loggerHook) logStart(sessionID string, cfg session.Config) {
	if h == nil || h.logger == nil {
		return
	}
	if err := h.logger.LogSessionStart(sessionID, cfg); err != nil {
		log.Printf("server: failed to log session start for %s: %v", sessionID, err)
	}
}

func (h *loggerHook) logFrame(sessionID string, frame session.Frame) {
	if h == nil || h.logger == nil {
		return
	}
	if err := h.logger.LogFrame(sessionID, frame); err != nil {
		log.Printf("server: failed to log frame for %s: %v", sessionID, err)
	}
}
