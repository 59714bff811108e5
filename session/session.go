// Package session implements the orchestration layer between the web
// surface, the language-model collaborator, the export collaborator, and
// the persistence store. A Session is the explicit per-user state object:
// it is created on login, mutated by one request at a time, and discarded
// on logout. Independent users' sessions do not interact.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"eduquiz/export"
	"eduquiz/generator"
	"eduquiz/store"
)

// Validation bounds, matching the UI form.
const (
	MinPasswordLen = 6
	MinQuestions   = 1
	MaxQuestions   = 20
)

var (
	// ErrValidation marks input rejected before any collaborator or
	// store call. Wrapped errors carry the specific message.
	ErrValidation = errors.New("validation failed")

	// ErrNothingToExport reports an export attempt without generated text.
	ErrNothingToExport = errors.New("no generated questions to export")
)

// Exporter is the document-export collaborator contract.
type Exporter interface {
	Export(text string, meta export.Metadata) (string, error)
}

// Controller carries the shared collaborators behind every session.
type Controller struct {
	store    *store.Store
	agent    *generator.Agent
	exporter Exporter
	timeout  time.Duration
	log      *slog.Logger
}

func NewController(st *store.Store, agent *generator.Agent, exp Exporter, timeout time.Duration, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{store: st, agent: agent, exporter: exp, timeout: timeout, log: log}
}

// Signup creates an account. It is a side effect only: the caller stays
// anonymous. Field validation happens before any store call; a duplicate
// email surfaces as store.ErrEmailTaken, distinct from login rejection.
func (c *Controller) Signup(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	if err := c.store.Register(ctx, email, password); err != nil {
		return err
	}
	c.log.Info("account created", "email", email)
	return nil
}

// Login authenticates and, on success, returns the new authenticated
// session. Rejection is generic: unknown email and wrong password are
// indistinguishable.
func (c *Controller) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, store.ErrInvalidCredentials
	}
	if err := c.store.Authenticate(ctx, email, password); err != nil {
		return nil, err
	}
	c.log.Info("login", "email", email)
	return &Session{ctrl: c, owner: email}, nil
}

// Resume builds a session for an already-authenticated owner, with empty
// transient state. Used when a valid auth token outlives the in-memory
// session, e.g. across a server restart.
func (c *Controller) Resume(email string) *Session {
	return &Session{ctrl: c, owner: email}
}

// Session holds one authenticated user's transient state: the current
// form inputs and the last generated (or reloaded) MCQ text. Nothing
// here is persisted until ExportAndSave. A mutex serializes mutation so
// a browser double-submit cannot interleave two requests mid-update.
type Session struct {
	ctrl *Controller

	mu      sync.Mutex
	owner   string
	topic   string
	count   int
	level   generator.Level
	mcqText string
}

// State is a read-only snapshot of a Session's transient fields.
type State struct {
	Owner   string
	Topic   string
	Count   int
	Level   generator.Level
	MCQText string
}

// State returns a consistent copy of the transient fields for rendering.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Owner:   s.owner,
		Topic:   s.topic,
		Count:   s.count,
		Level:   s.level,
		MCQText: s.mcqText,
	}
}

// Generate validates the form inputs, invokes the model synchronously
// under the configured timeout, and on success replaces the transient
// output. On any failure the prior transient output is left untouched.
func (s *Session) Generate(ctx context.Context, topic string, count int, level generator.Level) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("%w: please enter a topic", ErrValidation)
	}
	if count < MinQuestions || count > MaxQuestions {
		return fmt.Errorf("%w: question count must be between %d and %d", ErrValidation, MinQuestions, MaxQuestions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ctrl.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.ctrl.agent.Generate(ctx, topic, count, level)
	if err != nil {
		s.ctrl.log.Warn("generation failed", "owner", s.owner, "topic", topic, "err", err)
		return fmt.Errorf("generation failed: %w", err)
	}
	s.ctrl.log.Info("generated", "owner", s.owner, "topic", topic, "count", count, "level", level, "took", time.Since(start))

	s.topic = topic
	s.count = count
	s.level = level
	s.mcqText = text
	return nil
}

// ExportAndSave materializes the transient text as a PDF artifact and
// appends a history record referencing it. Export and append are not
// atomic: when the append fails the fresh artifact is deleted on a best
// effort basis so it does not linger orphaned.
func (s *Session) ExportAndSave(ctx context.Context) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mcqText == "" {
		return "", 0, ErrNothingToExport
	}

	path, err := s.ctrl.exporter.Export(s.mcqText, export.Metadata{Topic: s.topic, Owner: s.owner})
	if err != nil {
		return "", 0, fmt.Errorf("export failed: %w", err)
	}

	id, err := s.ctrl.store.AppendHistory(ctx, s.owner, s.topic, s.mcqText, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.ctrl.log.Warn("orphaned artifact left behind", "path", path, "err", rmErr)
		}
		return "", 0, fmt.Errorf("saving history failed: %w", err)
	}

	s.ctrl.log.Info("exported", "owner", s.owner, "topic", s.topic, "path", path, "record", id)
	return path, id, nil
}

// LoadSession replays a prior generation: on hit the transient topic and
// text are replaced with the stored values. A record belonging to a
// different owner is reported as not found, and a miss leaves the state
// unchanged.
func (s *Session) LoadSession(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ctrl.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if rec.Email != s.owner {
		return store.ErrNotFound
	}
	s.topic = rec.Topic
	s.mcqText = rec.MCQText
	return nil
}

// History lists the owner's prior generation records, newest first.
func (s *Session) History(ctx context.Context) ([]store.HistoryEntry, error) {
	s.mu.Lock()
	owner := s.owner
	s.mu.Unlock()
	return s.ctrl.store.ListHistory(ctx, owner)
}

// Logout clears all session-scoped transient state. The caller drops the
// session afterwards, returning to anonymous.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.log.Info("logout", "email", s.owner)
	s.owner = ""
	s.topic = ""
	s.count = 0
	s.level = ""
	s.mcqText = ""
}
