package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// backendInfo carries the identity shared by every backend.
type backendInfo struct {
	name  domain.ProviderName
	model string
}

func (b backendInfo) Name() domain.ProviderName { return b.name }
func (b backendInfo) Model() string             { return b.model }

// classifyError maps a backend failure onto the domain taxonomy: cancellation
// becomes domain.ErrAborted (keeping a supersede cause), anything else a
// *domain.GenerationError.
func classifyError(ctx context.Context, provider domain.ProviderName, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrAborted) {
		return err
	}
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return abortedError(ctx)
	}
	return &domain.GenerationError{Provider: provider, Err: err}
}

func abortedError(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return domain.ErrAborted
	}
	if errors.Is(cause, domain.ErrAborted) {
		return cause
	}
	return fmt.Errorf("%w: %v", domain.ErrAborted, cause)
}

// failFast rejects an already cancelled ctx before any network call.
func failFast(ctx context.Context) error {
	if ctx.Err() != nil {
		return abortedError(ctx)
	}
	return nil
}

// send delivers f unless ctx ends first.
func send(ctx context.Context, out chan<- ports.Fragment, f ports.Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamOnce adapts a batch Generate into a one-fragment stream.
func streamOnce(ctx context.Context, generate func(context.Context) (string, error)) <-chan ports.Fragment {
	out := make(chan ports.Fragment, 1)
	go func() {
		defer close(out)
		text, err := generate(ctx)
		if err != nil {
			out <- ports.Fragment{Err: err}
			return
		}
		out <- ports.Fragment{Text: text}
	}()
	return out
}

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}
