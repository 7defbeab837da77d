package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/shai-mongo/internal/domain"
)

func TestClassifyError(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	superseded, cancelSuperseded := context.WithCancelCause(context.Background())
	cancelSuperseded(domain.ErrSuperseded)

	tests := []struct {
		name       string
		ctx        context.Context
		err        error
		aborted    bool
		superseded bool
	}{
		{name: "plain failure", ctx: context.Background(), err: errors.New("boom")},
		{name: "deadline", ctx: context.Background(), err: context.DeadlineExceeded, aborted: true},
		{name: "cancelled ctx", ctx: cancelled, err: errors.New("read: connection reset"), aborted: true},
		{name: "superseded", ctx: superseded, err: context.Canceled, aborted: true, superseded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.ctx, domain.ProviderOpenAI, tt.err)
			assert.Equal(t, tt.aborted, errors.Is(got, domain.ErrAborted))
			assert.Equal(t, tt.superseded, errors.Is(got, domain.ErrSuperseded))
			if !tt.aborted {
				var genErr *domain.GenerationError
				assert.ErrorAs(t, got, &genErr)
			}
		})
	}
}

func TestStreamOnce(t *testing.T) {
	out := streamOnce(context.Background(), func(context.Context) (string, error) {
		return "whole answer", nil
	})
	f, ok := <-out
	assert.True(t, ok)
	assert.Equal(t, "whole answer", f.Text)
	_, ok = <-out
	assert.False(t, ok)
}
