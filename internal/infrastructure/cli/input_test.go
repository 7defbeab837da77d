package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/application/session"
)

// scripted returns a ReadFunc that answers from lines, recording defaults.
func scripted(defaults *[]string, answers ...interface{}) ReadFunc {
	return func(_ string, def string) (string, error) {
		*defaults = append(*defaults, def)
		if len(answers) == 0 {
			return "", io.EOF
		}
		next := answers[0]
		answers = answers[1:]
		if err, ok := next.(error); ok {
			return "", err
		}
		return next.(string), nil
	}
}

func TestInputQueueSingleLineBecomesDefault(t *testing.T) {
	q := NewInputQueue(nil)
	q.Inject(session.EncodeInput("  db.users.find()  ")...)
	assert.True(t, q.Pending())

	var defaults []string
	line, err := q.Next("test> ", scripted(&defaults, "db.users.find()"))
	require.NoError(t, err)
	assert.Equal(t, "db.users.find()", line)
	assert.Equal(t, []string{"db.users.find()"}, defaults)
	assert.False(t, q.Pending())
}

func TestInputQueueReplaysEditorMode(t *testing.T) {
	var echo bytes.Buffer
	q := NewInputQueue(&echo)
	command := "db.orders.aggregate([\n  { $match: { status: 'A' } },\n  { $group: { _id: '$cust' } }\n])"
	q.Inject(session.EncodeInput(command)...)

	var defaults []string
	// The user accepts the pre-filled last line, then presses Ctrl-D.
	line, err := q.Next("test> ", scripted(&defaults, "])"))
	require.NoError(t, err)

	assert.Equal(t, command, line)
	assert.Equal(t, []string{"])", ""}, defaults)
	assert.Contains(t, echo.String(), "...   { $match: { status: 'A' } },\n")
}

func TestInputQueueEditorInterruptDiscards(t *testing.T) {
	q := NewInputQueue(nil)
	q.Inject(session.EncodeInput("a\nb")...)

	var defaults []string
	line, err := q.Next("test> ", scripted(&defaults, ErrInterrupt))
	require.NoError(t, err)
	assert.Empty(t, line)
	assert.False(t, q.Pending())
}

func TestInputQueueCompleteLinesSubmitDirectly(t *testing.T) {
	var echo bytes.Buffer
	q := NewInputQueue(&echo)
	q.Inject("show collections\n", "db.users.findOne()")

	var defaults []string
	line, err := q.Next("test> ", scripted(&defaults))
	require.NoError(t, err)
	assert.Equal(t, "show collections", line)
	assert.Empty(t, defaults)
	assert.Equal(t, "test> show collections\n", echo.String())

	line, err = q.Next("test> ", scripted(&defaults, "db.users.findOne()"))
	require.NoError(t, err)
	assert.Equal(t, "db.users.findOne()", line)
	assert.Equal(t, []string{"db.users.findOne()"}, defaults)
}

func TestInputQueueUserTypedEditor(t *testing.T) {
	q := NewInputQueue(nil)
	q.Inject(".editor\n")

	var defaults []string
	line, err := q.Next("test> ", scripted(&defaults, "const a = 1", "a + 1"))
	require.NoError(t, err)
	assert.Equal(t, "const a = 1\na + 1", line)
}
