package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Listener reacts to a configuration change.
type Listener func(ctx context.Context, change domain.ConfigChange) error

// Store is the typed AI settings cache backed by a persistent key/value store.
type Store struct {
	kv     ports.KeyValueStore
	logger ports.Logger

	// writeMu orders persist and cache updates so the cache always holds the
	// last persisted value.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	settings  domain.Settings
	listeners map[int]Listener
	nextID    int
}

// NewStore loads every key from kv on top of defaults. Stored values that no
// longer validate are skipped.
func NewStore(ctx context.Context, kv ports.KeyValueStore, defaults domain.Settings, logger ports.Logger) (*Store, error) {
	if kv == nil {
		return nil, errors.New("config store: key/value store is nil")
	}
	s := &Store{
		kv:        kv,
		logger:    logger,
		settings:  defaults,
		listeners: map[int]Listener{},
	}
	for _, key := range domain.ConfigKeys {
		raw, ok, err := kv.Get(ctx, string(key))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		value, err := Validate(key, raw)
		if err != nil {
			s.warn("ignoring stored setting", map[string]interface{}{"key": key, "error": err.Error()})
			continue
		}
		s.settings = s.settings.With(key, value)
	}
	return s, nil
}

// Get returns the current value for key.
func (s *Store) Get(key string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.settings.Value(domain.ConfigKey(key))
	if !ok {
		return nil, &domain.InvalidKeyError{Key: key}
	}
	return value, nil
}

// Set validates value, persists it, updates the cache and notifies listeners.
// Nothing is persisted when validation fails.
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	if !domain.IsConfigKey(key) {
		return &domain.InvalidKeyError{Key: key}
	}
	k := domain.ConfigKey(key)
	validated, err := Validate(k, value)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	if err := s.kv.Set(ctx, key, validated); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("persist %s: %w", key, err)
	}

	s.mu.Lock()
	s.settings = s.settings.With(k, validated)
	listeners := make([]Listener, 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()
	s.writeMu.Unlock()

	change := domain.ConfigChange{Key: k, Value: validated}
	var errs []error
	for _, l := range listeners {
		if err := l(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers l for change events and returns its unsubscribe func.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) Provider() domain.ProviderName { return s.Snapshot().Provider }
func (s *Store) Model() string                 { return s.Snapshot().Model }
func (s *Store) IncludeSampleDocs() bool       { return s.Snapshot().IncludeSampleDocs }
func (s *Store) DefaultCollection() string     { return s.Snapshot().DefaultCollection }
func (s *Store) ParallelRequests() bool        { return s.Snapshot().ParallelRequests }

// Describe renders the settings one key per line, annotating enum keys with
// their allowed values.
func (s *Store) Describe() string {
	snapshot := s.Snapshot()
	var b strings.Builder
	b.WriteString("{\n")
	for _, key := range domain.ConfigKeys {
		value, _ := snapshot.Value(key)
		fmt.Fprintf(&b, "  %s: %s,", key, literal(value))
		if key == domain.ConfigProvider {
			fmt.Fprintf(&b, " // %s", strings.Join(domain.ProviderNames(), " | "))
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func literal(value interface{}) string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "undefined"
		}
		return fmt.Sprintf("'%s'", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (s *Store) warn(msg string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, fields)
	}
}
