// Package session implements the AI session core: conversation history,
// active collection context, single-flight request handling and routing of
// generated text to the input buffer or the output sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/shai-mongo/internal/application/config"
	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Deps are the collaborators a Session needs. History is optional.
type Deps struct {
	Config    *config.Store
	Backends  ports.BackendFactory
	Database  ports.DatabaseContext
	Input     ports.InputSink
	Output    ports.OutputSink
	Indicator ports.Indicator
	Logger    ports.Logger
	History   ports.HistoryRepository
}

// entry is one pushed turn. Rollback removes the exact entry that was pushed.
type entry struct {
	msg domain.Message
}

// inflight is the handle of a request holding the single-flight slot.
// done closes once the request has rolled back and cleaned up.
type inflight struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// Session is one conversational AI session bound to a REPL.
type Session struct {
	cfg       *config.Store
	backends  ports.BackendFactory
	db        ports.DatabaseContext
	input     ports.InputSink
	output    ports.OutputSink
	indicator ports.Indicator
	logger    ports.Logger
	history   ports.HistoryRepository
	now       func() time.Time

	unsubscribe func()

	mu               sync.Mutex
	messages         []*entry
	activeCollection string
	backend          ports.Backend
	// model is the configured model name the backend was built from.
	model            string
	active           *inflight
}

// New builds a session from the current configuration and subscribes it to
// configuration changes. A stored model the provider rejects is replaced by
// the provider default so a bad setting cannot block startup.
func New(ctx context.Context, deps Deps) (*Session, error) {
	if deps.Config == nil || deps.Backends == nil || deps.Database == nil ||
		deps.Input == nil || deps.Output == nil || deps.Indicator == nil || deps.Logger == nil {
		return nil, errors.New("session dependencies not satisfied")
	}

	settings := deps.Config.Snapshot()
	backend, err := deps.Backends.ForProvider(settings.Provider, settings.Model)
	if err != nil && settings.Model != domain.DefaultModel {
		deps.Logger.Warn("stored model unavailable, using provider default", map[string]interface{}{
			"provider": string(settings.Provider),
			"model":    settings.Model,
			"error":    err.Error(),
		})
		settings.Model = domain.DefaultModel
		backend, err = deps.Backends.ForProvider(settings.Provider, settings.Model)
		if err == nil {
			if setErr := deps.Config.Set(ctx, string(domain.ConfigModel), settings.Model); setErr != nil {
				deps.Logger.Warn("failed to reset stored model", map[string]interface{}{"error": setErr.Error()})
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("backend init: %w", err)
	}

	s := &Session{
		cfg:              deps.Config,
		backends:         deps.Backends,
		db:               deps.Database,
		input:            deps.Input,
		output:           deps.Output,
		indicator:        deps.Indicator,
		logger:           deps.Logger,
		history:          deps.History,
		now:              time.Now,
		activeCollection: settings.DefaultCollection,
		backend:          backend,
		model:            settings.Model,
	}
	s.unsubscribe = deps.Config.Subscribe(s.OnConfigChange)
	return s, nil
}

// Close detaches the session from configuration changes.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked()
}

func (s *Session) messagesLocked() []domain.Message {
	out := make([]domain.Message, 0, len(s.messages))
	for _, e := range s.messages {
		out = append(out, e.msg)
	}
	return out
}

// ActiveCollection returns the collection prompts are scoped to, or "".
func (s *Session) ActiveCollection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCollection
}

// Backend returns the backend currently used for generation.
func (s *Session) Backend() ports.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Collection sets the active collection, or clears it when name is blank.
func (s *Session) Collection(name string) {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	s.activeCollection = name
	s.mu.Unlock()

	if name == "" {
		name = "none"
	}
	s.output.Println("Active collection set to " + name)
}

// Clear drops the conversation and resets the collection to the configured default.
func (s *Session) Clear() {
	def := s.cfg.DefaultCollection()
	s.mu.Lock()
	s.messages = nil
	s.activeCollection = def
	s.mu.Unlock()
	s.output.Println("Session cleared")
}

func (s *Session) setBackend(backend ports.Backend, model string) {
	s.mu.Lock()
	s.backend = backend
	s.model = model
	s.mu.Unlock()
	s.logger.Debug("backend switched", map[string]interface{}{
		"provider": string(backend.Name()),
		"model":    backend.Model(),
	})
}

func (s *Session) backendModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Session) adoptCollection(name string) {
	s.mu.Lock()
	s.activeCollection = name
	s.mu.Unlock()
}
