package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

type staticSettings domain.Settings

func (s staticSettings) Snapshot() domain.Settings { return domain.Settings(s) }

type fakeBackend struct{ streaming bool }

func (fakeBackend) Name() domain.ProviderName { return domain.ProviderOpenAI }
func (fakeBackend) Model() string             { return "gpt-4.1-mini" }
func (b fakeBackend) SupportsStreaming() bool { return b.streaming }
func (fakeBackend) Generate(context.Context, ports.GenerateRequest) (string, error) {
	return "", nil
}
func (fakeBackend) Stream(context.Context, ports.GenerateRequest) (<-chan ports.Fragment, error) {
	return nil, nil
}

type fakeFactory struct{ err error }

func (f fakeFactory) ForProvider(domain.ProviderName, string) (ports.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeBackend{streaming: true}, nil
}

type fakeKeys string

func (k fakeKeys) APIKey(domain.ProviderDefinition) string { return string(k) }

type fakeDatabase struct{ err error }

func (fakeDatabase) CurrentDatabaseName() string { return "shop" }
func (d fakeDatabase) ListCollectionNames(context.Context) ([]string, error) {
	return []string{"orders", "users"}, d.err
}
func (fakeDatabase) SampleDocuments(context.Context, string, int) ([]map[string]interface{}, error) {
	return nil, nil
}

type fakeSecurity struct{}

func (fakeSecurity) Evaluate(string) (domain.RiskAssessment, error) {
	return domain.RiskAssessment{Level: domain.RiskSafe, Action: domain.ActionAllow}, nil
}

func openAI() staticSettings {
	s := domain.DefaultSettings()
	s.Provider = domain.ProviderOpenAI
	return staticSettings(s)
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := map[string]domain.HealthStatus{}
	for _, c := range report.Checks {
		out[c.Name] = c.Status
	}
	return out
}

func TestRunHealthy(t *testing.T) {
	svc := &Service{
		Settings: openAI(),
		Backends: fakeFactory{},
		Keys:     fakeKeys("sk-test"),
		Database: fakeDatabase{},
		Security: fakeSecurity{},
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	got := statuses(report)
	assert.Equal(t, domain.HealthOK, got["Config"])
	assert.Equal(t, domain.HealthOK, got["Backend"])
	assert.Equal(t, domain.HealthOK, got["API key"])
	assert.Equal(t, domain.HealthOK, got["Database"])
	assert.Equal(t, domain.HealthOK, got["Guardrail"])
	assert.Equal(t, domain.HealthWarn, got["History"])
	assert.False(t, Failed(report))
}

func TestRunReportsFailures(t *testing.T) {
	svc := &Service{
		Settings: openAI(),
		Backends: fakeFactory{err: errors.New("bad model")},
		Keys:     fakeKeys(""),
		Database: fakeDatabase{err: errors.New("server selection timeout")},
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	got := statuses(report)
	assert.Equal(t, domain.HealthError, got["Backend"])
	assert.Equal(t, domain.HealthWarn, got["API key"])
	assert.Equal(t, domain.HealthError, got["Database"])
	assert.Equal(t, domain.HealthWarn, got["Guardrail"])
	assert.True(t, Failed(report))
}

func TestKeylessProvider(t *testing.T) {
	svc := &Service{Settings: staticSettings(domain.DefaultSettings())}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.HealthOK, statuses(report)["API key"])
}

func TestRunWithoutSettings(t *testing.T) {
	_, err := (&Service{}).Run(context.Background())
	assert.Error(t, err)
}
