package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/application/commands"
	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/pkg/logger"
)

type dispatched struct {
	name string
	args []string
}

type fakeDispatcher struct {
	calls []dispatched
	err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, name string, args []string) error {
	f.calls = append(f.calls, dispatched{name: name, args: args})
	return f.err
}

type fakeDatabase struct{ name string }

func (f *fakeDatabase) CurrentDatabaseName() string { return f.name }
func (f *fakeDatabase) UseDatabase(name string) error {
	if name == "" {
		return errors.New("invalid database name")
	}
	f.name = name
	return nil
}

type fakeSecurity struct{ assessment domain.RiskAssessment }

func (f fakeSecurity) Evaluate(string) (domain.RiskAssessment, error) { return f.assessment, nil }

type fakeExecutor struct {
	ran []string
	db  string
}

func (f *fakeExecutor) Execute(_ context.Context, db, command string) (domain.ExecutionResult, error) {
	f.ran = append(f.ran, command)
	f.db = db
	return domain.ExecutionResult{}, nil
}

type replHarness struct {
	repl     *REPL
	out      *bytes.Buffer
	input    *InputQueue
	suite    *fakeDispatcher
	exec     *fakeExecutor
	confirms int
}

func newREPLHarness(action domain.GuardrailAction, accept bool) *replHarness {
	h := &replHarness{out: &bytes.Buffer{}, suite: &fakeDispatcher{}, exec: &fakeExecutor{}}
	h.input = NewInputQueue(nil)
	h.repl = NewREPL(REPLDeps{
		Commands: h.suite,
		Database: &fakeDatabase{name: "test"},
		Security: fakeSecurity{assessment: domain.RiskAssessment{Level: domain.RiskHigh, Action: action, Reasons: []string{"drops a collection"}}},
		Executor: h.exec,
		Input:    h.input,
		Output:   NewOutput(h.out),
		Logger:   logger.Nop(),
		Confirm: func(domain.RiskAssessment, string) (bool, error) {
			h.confirms++
			return accept, nil
		},
	})
	return h
}

func TestExecuteDispatchesAICommands(t *testing.T) {
	h := newREPLHarness(domain.ActionAllow, true)
	ctx := context.Background()

	exit, err := h.repl.Execute(ctx, "ai")
	require.NoError(t, err)
	assert.False(t, exit)

	_, err = h.repl.Execute(ctx, "ai.ask what is an index?")
	require.NoError(t, err)

	assert.Equal(t, []dispatched{
		{name: "help"},
		{name: "ask", args: []string{"what is an index?"}},
	}, h.suite.calls)
	assert.Empty(t, h.exec.ran)
}

func TestExecuteUnknownCommandHint(t *testing.T) {
	h := newREPLHarness(domain.ActionAllow, true)
	h.suite.err = fmt.Errorf("%w: nope", commands.ErrUnknownCommand)

	_, err := h.repl.Execute(context.Background(), "ai.nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrUnknownCommand)
	assert.Contains(t, err.Error(), "ai.help()")
}

func TestExecuteUseSwitchesDatabase(t *testing.T) {
	h := newREPLHarness(domain.ActionAllow, true)

	_, err := h.repl.Execute(context.Background(), "use shop")
	require.NoError(t, err)
	assert.Equal(t, "shop> ", h.repl.prompt())
	assert.Equal(t, "switched to db shop\n", h.out.String())
}

func TestExecuteRunsAllowedCommands(t *testing.T) {
	h := newREPLHarness(domain.ActionAllow, true)

	_, err := h.repl.Execute(context.Background(), "db.users.countDocuments()")
	require.NoError(t, err)
	assert.Equal(t, []string{"db.users.countDocuments()"}, h.exec.ran)
	assert.Equal(t, "test", h.exec.db)
	assert.Zero(t, h.confirms)
}

func TestExecuteGuardrail(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		h := newREPLHarness(domain.ActionConfirm, true)
		_, err := h.repl.Execute(context.Background(), "db.users.drop()")
		require.NoError(t, err)
		assert.Equal(t, 1, h.confirms)
		assert.Len(t, h.exec.ran, 1)
	})

	t.Run("declined", func(t *testing.T) {
		h := newREPLHarness(domain.ActionConfirm, false)
		_, err := h.repl.Execute(context.Background(), "db.users.drop()")
		require.NoError(t, err)
		assert.Empty(t, h.exec.ran)
		assert.Contains(t, h.out.String(), "Command cancelled")
	})

	t.Run("blocked", func(t *testing.T) {
		h := newREPLHarness(domain.ActionBlock, true)
		_, err := h.repl.Execute(context.Background(), "db.shutdownServer()")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "drops a collection")
		assert.Zero(t, h.confirms)
		assert.Empty(t, h.exec.ran)
	})
}

func TestExecuteEditorAndExit(t *testing.T) {
	h := newREPLHarness(domain.ActionAllow, true)

	_, err := h.repl.Execute(context.Background(), ".editor")
	require.NoError(t, err)
	assert.True(t, h.input.Pending())
	assert.True(t, strings.HasPrefix(h.out.String(), "// Entering editor mode"))

	exit, err := h.repl.Execute(context.Background(), "exit")
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestPrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	answers := []string{"y", "y"}
	read := func(string, string) (string, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
	p := NewPrompter(read, &out)

	ok, err := p.Confirm(domain.RiskAssessment{Level: domain.RiskHigh, Action: domain.ActionConfirm}, "db.users.drop()")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm(domain.RiskAssessment{Level: domain.RiskCritical, Action: domain.ActionConfirm}, "db.dropDatabase()")
	require.NoError(t, err)
	assert.False(t, ok, "critical commands need an explicit yes")
	assert.Contains(t, out.String(), "CRITICAL risk detected")
}
