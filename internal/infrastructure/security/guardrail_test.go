package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
)

func TestGuardrailDefaults(t *testing.T) {
	guardrail, err := NewGuardrail("")
	require.NoError(t, err)
	assert.Equal(t, "embedded defaults", guardrail.Source())
	assert.Positive(t, guardrail.RuleCount())

	tests := []struct {
		command string
		level   domain.RiskLevel
		action  domain.GuardrailAction
	}{
		{command: "db.users.find({ age: { $gt: 30 } })", level: domain.RiskSafe, action: domain.ActionAllow},
		{command: "db.users.deleteMany({ active: false })", level: domain.RiskSafe, action: domain.ActionAllow},
		{command: "db.users.deleteMany({})", level: domain.RiskHigh, action: domain.ActionConfirm},
		{command: "db.logs.remove( { } )", level: domain.RiskHigh, action: domain.ActionConfirm},
		{command: "db.users.drop()", level: domain.RiskHigh, action: domain.ActionConfirm},
		{command: `db.users.updateMany({}, { $set: { x: 1 } })`, level: domain.RiskMedium, action: domain.ActionConfirm},
		{command: "db.dropDatabase()", level: domain.RiskCritical, action: domain.ActionConfirm},
		{command: "db.getSiblingDB('admin').shutdownServer()", level: domain.RiskCritical, action: domain.ActionBlock},
		{command: "db.dropAllUsers()", level: domain.RiskHigh, action: domain.ActionConfirm},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			result, err := guardrail.Evaluate(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.level, result.Level)
			assert.Equal(t, tt.action, result.Action)
			if tt.level != domain.RiskSafe {
				assert.NotEmpty(t, result.Reasons)
			}
		})
	}
}

func TestGuardrailMostSevereRuleWins(t *testing.T) {
	guardrail, err := NewGuardrail("")
	require.NoError(t, err)

	result, err := guardrail.Evaluate("db.users.drop(); db.dropDatabase()")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCritical, result.Level)
	assert.Len(t, result.Reasons, 2)
}

func TestGuardrailLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  danger_patterns:
    - pattern: 'createIndex'
      level: low
      message: Index build
      action: block
`), 0o600))

	guardrail, err := NewGuardrail(path)
	require.NoError(t, err)
	assert.Equal(t, path, guardrail.Source())
	assert.Equal(t, 1, guardrail.RuleCount())

	result, err := guardrail.Evaluate("db.users.createIndex({ email: 1 })")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBlock, result.Action)
}

func TestGuardrailMissingFileUsesDefaults(t *testing.T) {
	guardrail, err := NewGuardrail(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "embedded defaults", guardrail.Source())
}

func TestGuardrailRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  danger_patterns:\n    - pattern: '('\n"), 0o600))

	_, err := NewGuardrail(path)
	assert.Error(t, err)
}
