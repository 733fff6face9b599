package shared

import (
	"net/http"
)

// CommitWriter persists the session right before the response header is
// written, so cookie and flash changes made by handlers reach the browser.
type CommitWriter struct {
	http.ResponseWriter
	manager   *SessionManager
	req       *http.Request
	sess      *Session
	committed bool
	err       error
}

// NewCommitWriter wraps w for one request.
func NewCommitWriter(w http.ResponseWriter, r *http.Request, manager *SessionManager, sess *Session) *CommitWriter {
	return &CommitWriter{ResponseWriter: w, manager: manager, req: r, sess: sess}
}

// WriteHeader commits the session once, then forwards the status.
func (w *CommitWriter) WriteHeader(statusCode int) {
	w.commit()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *CommitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// Finish commits a session whose handler never wrote a response.
func (w *CommitWriter) Finish() error {
	w.commit()
	return w.err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *CommitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *CommitWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	w.err = w.manager.Commit(w.req.Context(), w.ResponseWriter, w.req, w.sess)
}
