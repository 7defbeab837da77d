package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/shai-mongo/internal/domain"
)

// OnConfigChange keeps the backend in line with the provider and model
// settings. The stored model always names a model the live backend accepts.
func (s *Session) OnConfigChange(ctx context.Context, change domain.ConfigChange) error {
	switch change.Key {
	case domain.ConfigProvider:
		provider := domain.ProviderName(fmt.Sprint(change.Value))
		backend, err := s.backends.ForProvider(provider, domain.DefaultModel)
		if err != nil {
			return fmt.Errorf("switch provider: %w", err)
		}
		s.setBackend(backend, domain.DefaultModel)
		// Model names belong to the provider they were chosen for.
		if s.cfg.Model() != domain.DefaultModel {
			if err := s.cfg.Set(ctx, string(domain.ConfigModel), domain.DefaultModel); err != nil {
				return fmt.Errorf("reset model: %w", err)
			}
		}
		return nil

	case domain.ConfigModel:
		model := fmt.Sprint(change.Value)
		provider := s.cfg.Provider()
		if !domain.SupportsCustomModels(provider) && model != domain.DefaultModel {
			overrideErr := &domain.UnsupportedModelOverrideError{Provider: provider}
			if err := s.cfg.Set(ctx, string(domain.ConfigModel), domain.DefaultModel); err != nil {
				return errors.Join(overrideErr, err)
			}
			return overrideErr
		}
		if model == s.backendModel() && s.Backend().Name() == provider {
			return nil
		}
		backend, err := s.backends.ForProvider(provider, model)
		if err != nil {
			invalidErr := fmt.Errorf("Invalid model, please ensure your name is correct: %w", err)
			// Restore the model the live backend runs so the bad name is not
			// picked up on the next start.
			if setErr := s.cfg.Set(ctx, string(domain.ConfigModel), s.backendModel()); setErr != nil {
				return errors.Join(invalidErr, setErr)
			}
			return invalidErr
		}
		s.setBackend(backend, model)
		return nil
	}
	return nil
}
