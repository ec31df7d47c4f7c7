// Package flash stores one-shot notifications in the session so they
// survive the redirect after a form post.
package flash

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Kind is the notification style.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Message is one notification.
type Message struct {
	Kind Kind
	Text string
}

func init() {
	gob.Register(Message{})
}

const sessionName = "folioadmin-flash"

// Store reads and writes flash messages.
type Store struct {
	store sessions.Store
	log   *zap.Logger
}

func New(store sessions.Store, logger *zap.Logger) *Store {
	return &Store{store: store, log: logger}
}

// Add queues a message for the next page render.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, m Message) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		s.log.Debug("flash: session decode failed; starting fresh", zap.Error(err))
	}
	sess.AddFlash(m)
	if err := sess.Save(r, w); err != nil {
		s.log.Warn("flash: save failed", zap.Error(err))
	}
}

// Pop returns and clears the queued messages.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.log.Warn("flash: save failed", zap.Error(err))
	}

	out := make([]Message, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(Message); ok {
			out = append(out, m)
		}
	}
	return out
}

// Notifier adapts a Store to a single request so callers can report
// outcomes without knowing about HTTP.
type Notifier struct {
	s *Store
	w http.ResponseWriter
	r *http.Request
}

// For binds the store to one request/response pair.
func (s *Store) For(w http.ResponseWriter, r *http.Request) *Notifier {
	return &Notifier{s: s, w: w, r: r}
}

func (n *Notifier) Success(text string) { n.s.Add(n.w, n.r, Message{Kind: Success, Text: text}) }
func (n *Notifier) Error(text string)   { n.s.Add(n.w, n.r, Message{Kind: Error, Text: text}) }
