package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// SettingsSource exposes the effective AI settings.
type SettingsSource interface {
	Snapshot() domain.Settings
}

// KeyResolver looks up provider credentials.
type KeyResolver interface {
	APIKey(def domain.ProviderDefinition) string
}

// Service runs environment diagnostics.
type Service struct {
	Settings SettingsSource
	Backends ports.BackendFactory
	Keys     KeyResolver
	Database ports.DatabaseContext
	History  ports.HistoryRepository
	Security ports.SecurityService
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	if s.Settings == nil {
		checks = append(checks, fail("Config", "settings store not initialized"))
		return domain.HealthReport{Checks: checks}, fmt.Errorf("settings store not initialized")
	}
	settings := s.Settings.Snapshot()
	checks = append(checks, ok("Config", fmt.Sprintf("provider %s, model %s", settings.Provider, settings.Model)))

	checks = append(checks, s.backendCheck(settings))
	checks = append(checks, s.apiKeyCheck(settings.Provider))
	checks = append(checks, s.databaseCheck(ctx))

	if s.History != nil {
		if _, err := s.History.Records(1, ""); err != nil {
			checks = append(checks, warn("History", err.Error()))
		} else {
			checks = append(checks, ok("History", s.History.Path()))
		}
	} else {
		checks = append(checks, warn("History", "history store not initialized"))
	}

	if s.Security != nil {
		if _, err := s.Security.Evaluate("db.getName()"); err != nil {
			checks = append(checks, fail("Guardrail", err.Error()))
		} else {
			checks = append(checks, ok("Guardrail", "rules loaded"))
		}
	} else {
		checks = append(checks, warn("Guardrail", "security service not initialized"))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) backendCheck(settings domain.Settings) domain.HealthCheck {
	if s.Backends == nil {
		return warn("Backend", "backend factory not initialized")
	}
	backend, err := s.Backends.ForProvider(settings.Provider, settings.Model)
	if err != nil {
		return fail("Backend", err.Error())
	}
	mode := "batch"
	if backend.SupportsStreaming() {
		mode = "streaming"
	}
	return ok("Backend", fmt.Sprintf("%s/%s (%s)", backend.Name(), backend.Model(), mode))
}

func (s *Service) apiKeyCheck(provider domain.ProviderName) domain.HealthCheck {
	def, found := domain.LookupProvider(provider)
	if !found {
		return fail("API key", fmt.Sprintf("unknown provider %s", provider))
	}
	if !def.RequiresAPIKey() {
		return ok("API key", fmt.Sprintf("%s needs no key", provider))
	}
	if s.Keys == nil || s.Keys.APIKey(def) == "" {
		return warn("API key", fmt.Sprintf("%s missing", strings.Join(def.APIKeyEnv, " or ")))
	}
	return ok("API key", fmt.Sprintf("detected for %s", provider))
}

func (s *Service) databaseCheck(ctx context.Context) domain.HealthCheck {
	if s.Database == nil {
		return warn("Database", "not connected")
	}
	names, err := s.Database.ListCollectionNames(ctx)
	if err != nil {
		return fail("Database", err.Error())
	}
	return ok("Database", fmt.Sprintf("%s reachable, %d collections", s.Database.CurrentDatabaseName(), len(names)))
}

// Failed reports whether any check errored.
func Failed(report domain.HealthReport) bool {
	for _, check := range report.Checks {
		if check.Status == domain.HealthError {
			return true
		}
	}
	return false
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
