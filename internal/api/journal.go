package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-node/internal/audit"
)

// journalChanSize is the buffer size for the async journal channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const journalChanSize = 256

// journalSourceHTTP marks entries produced by the operation routes.
const journalSourceHTTP = "http"

// recordJournal enqueues a journal entry for asynchronous write (best-effort).
func (s *Server) recordJournal(entry *audit.Entry) {
	if s.journalCh == nil {
		return
	}

	select {
	case s.journalCh <- entry:
	default:
		s.logger.Warn("journal channel full, dropping entry",
			"action", entry.Action,
			"operation", entry.Operation,
		)
	}
}

// drainJournal writes queued entries serially until ctx is cancelled, then
// flushes whatever is left.
func (s *Server) drainJournal(ctx context.Context) {
	for {
		select {
		case entry := <-s.journalCh:
			s.writeJournal(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.journalCh:
					s.writeJournal(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeJournal(entry *audit.Entry) {
	if err := s.journal.Create(context.Background(), entry); err != nil {
		s.logger.Error("journal write failed",
			"action", entry.Action,
			"operation", entry.Operation,
			"error", err,
		)
	}
}

// handleListJournal returns journal entries, newest first.
//
// Query parameters:
//   - action: command, failure or fault
//   - source: http or hardware
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "journal not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Source: q.Get("source"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list journal", "error", err)
		writeInternalError(w, "failed to list journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
