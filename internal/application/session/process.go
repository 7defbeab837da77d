package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Options control a single ProcessResponse call.
type Options struct {
	SystemPrompt   string
	ExpectedOutput domain.ExpectedOutput
	// Timeout defaults to domain.DefaultRequestTimeout.
	Timeout   time.Duration
	Operation domain.Operation
}

// ProcessResponse sends prompt with the conversation history to the active
// backend. Commands are re-injected into the input buffer; responses are
// printed. On any failure the user turn is rolled back.
func (s *Session) ProcessResponse(ctx context.Context, prompt string, opts Options) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	// The indicator follows the caller's context. Supersession and timeouts
	// end it through the deferred Stop instead.
	indicatorCtx := ctx
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	started := s.now()
	backend := s.Backend()

	s.indicator.Start(indicatorCtx)
	req, err := s.acquire(ctx, cancel)
	// Stop runs before release so a successor waiting on this request
	// restarts its indicator only after this one is gone.
	defer func() {
		s.indicator.Stop()
		s.release(req)
	}()
	if err != nil {
		s.record(backend, opts.Operation, prompt, "", err, started)
		return err
	}
	// A superseded predecessor may have cleared the indicator while this
	// request waited.
	s.indicator.Start(indicatorCtx)

	text, err := s.generate(ctx, backend, prompt, opts)
	s.record(backend, opts.Operation, prompt, text, err, started)
	if err != nil {
		s.logger.Debug("generation failed", map[string]interface{}{
			"provider":  string(backend.Name()),
			"operation": string(opts.Operation),
			"error":     err.Error(),
		})
		return err
	}

	if opts.ExpectedOutput == domain.OutputCommand {
		s.indicator.Stop()
		s.input.Inject(EncodeInput(FormatResponse(text, domain.OutputCommand))...)
	}
	return nil
}

// acquire takes the single-flight slot. The previous holder is cancelled with
// domain.ErrSuperseded and awaited before the slot is handed over. The
// returned handle is never nil so release can always run.
func (s *Session) acquire(ctx context.Context, cancel context.CancelCauseFunc) (*inflight, error) {
	req := &inflight{cancel: cancel, done: make(chan struct{})}
	if !s.cfg.Snapshot().SingleFlight() {
		return req, nil
	}

	s.mu.Lock()
	prev := s.active
	s.active = req
	s.mu.Unlock()

	if prev != nil {
		prev.cancel(domain.ErrSuperseded)
		// The predecessor honors cancellation, so its done channel closes even
		// when this request is superseded in the meantime.
		<-prev.done
	}
	if ctx.Err() != nil {
		if errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
			return req, domain.ErrParallelRequestRejected
		}
		return req, aborted(ctx)
	}
	return req, nil
}

func (s *Session) release(req *inflight) {
	s.mu.Lock()
	if s.active == req {
		s.active = nil
	}
	s.mu.Unlock()
	close(req.done)
}

// generate pushes the user turn, runs the backend and either records the
// assistant turn or rolls the user turn back.
func (s *Session) generate(ctx context.Context, backend ports.Backend, prompt string, opts Options) (string, error) {
	turn := &entry{msg: domain.Message{Role: domain.RoleUser, Content: prompt}}

	s.mu.Lock()
	s.messages = append(s.messages, turn)
	history := s.messagesLocked()
	s.mu.Unlock()

	req := ports.GenerateRequest{
		Messages:       history,
		SystemPrompt:   opts.SystemPrompt,
		WithReferences: opts.ExpectedOutput == domain.OutputResponse,
	}

	var (
		text string
		err  error
	)
	if opts.ExpectedOutput == domain.OutputResponse && backend.SupportsStreaming() {
		text, err = s.stream(ctx, backend, req)
	} else {
		text, err = backend.Generate(ctx, req)
		err = normalize(ctx, backend.Name(), err)
		if err == nil && opts.ExpectedOutput == domain.OutputResponse {
			s.indicator.Stop()
			s.output.Println(FormatResponse(text, domain.OutputResponse))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.removeLocked(turn)
		return "", err
	}
	if s.containsLocked(turn) {
		s.messages = append(s.messages, &entry{msg: domain.Message{Role: domain.RoleAssistant, Content: text}})
	}
	return text, nil
}

// stream writes fragments as they arrive, after the answer prefix.
func (s *Session) stream(ctx context.Context, backend ports.Backend, req ports.GenerateRequest) (string, error) {
	fragments, err := backend.Stream(ctx, req)
	if err != nil {
		return "", normalize(ctx, backend.Name(), err)
	}

	var b strings.Builder
	for f := range fragments {
		if f.Err != nil {
			if b.Len() > 0 {
				s.output.Println("")
			}
			return "", normalize(ctx, backend.Name(), f.Err)
		}
		if b.Len() == 0 {
			s.indicator.Stop()
			s.output.Write(answerPrefix)
		}
		b.WriteString(f.Text)
		s.output.Write(f.Text)
	}
	if b.Len() > 0 {
		s.output.Println("")
	}
	if ctx.Err() != nil {
		return "", aborted(ctx)
	}
	return b.String(), nil
}

func (s *Session) removeLocked(turn *entry) {
	for i, e := range s.messages {
		if e == turn {
			s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
			return
		}
	}
}

func (s *Session) containsLocked(turn *entry) bool {
	for _, e := range s.messages {
		if e == turn {
			return true
		}
	}
	return false
}

func (s *Session) record(backend ports.Backend, op domain.Operation, prompt, output string, err error, started time.Time) {
	if s.history == nil {
		return
	}
	rec := domain.GenerationRecord{
		ID:         uuid.NewString(),
		Timestamp:  started.UTC(),
		Provider:   string(backend.Name()),
		Model:      backend.Model(),
		Operation:  op,
		Prompt:     prompt,
		Output:     output,
		Outcome:    domain.OutcomeSuccess,
		DurationMS: s.now().Sub(started).Milliseconds(),
	}
	switch {
	case err == nil:
	case domain.IsAborted(err), errors.Is(err, domain.ErrParallelRequestRejected):
		rec.Outcome = domain.OutcomeAborted
		rec.Error = err.Error()
	default:
		rec.Outcome = domain.OutcomeError
		rec.Error = err.Error()
	}
	if saveErr := s.history.Save(rec); saveErr != nil {
		s.logger.Warn("failed to save history", map[string]interface{}{"error": saveErr.Error()})
	}
}

// normalize keeps backend errors inside the domain taxonomy even when a
// backend returns a raw error.
func normalize(ctx context.Context, provider domain.ProviderName, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsAborted(err) {
		return err
	}
	if ctx.Err() != nil {
		return aborted(ctx)
	}
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &domain.GenerationError{Provider: provider, Err: err}
}

func aborted(ctx context.Context) error {
	cause := context.Cause(ctx)
	switch {
	case cause == nil:
		return domain.ErrAborted
	case errors.Is(cause, domain.ErrAborted):
		return cause
	default:
		return fmt.Errorf("%w: %v", domain.ErrAborted, cause)
	}
}
