package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Aggregate generates an aggregation pipeline command for the active collection.
func (s *Session) Aggregate(ctx context.Context, prompt string) error {
	return s.collectionCommand(ctx, prompt, taskAggregate, domain.OperationAggregate)
}

// Query generates a find command for the active collection.
func (s *Session) Query(ctx context.Context, prompt string) error {
	return s.collectionCommand(ctx, prompt, taskQuery, domain.OperationQuery)
}

// Data generates a data manipulation command for the active collection.
func (s *Session) Data(ctx context.Context, prompt string) error {
	return s.collectionCommand(ctx, prompt, taskShell, domain.OperationData)
}

// Shell generates an administrative mongosh command.
func (s *Session) Shell(ctx context.Context, prompt string) error {
	return s.ProcessResponse(ctx, prompt, Options{
		SystemPrompt:   s.BuildSystemPrompt(ctx, taskShell, false),
		ExpectedOutput: domain.OutputCommand,
		Operation:      domain.OperationShell,
	})
}

// General answers a question that is not about MongoDB.
func (s *Session) General(ctx context.Context, prompt string) error {
	return s.ProcessResponse(ctx, prompt, Options{
		SystemPrompt:   generalSystemPrompt,
		ExpectedOutput: domain.OutputResponse,
		Operation:      domain.OperationGeneral,
	})
}

// Ask answers a MongoDB question.
func (s *Session) Ask(ctx context.Context, prompt string) error {
	return s.ProcessResponse(ctx, prompt, Options{
		SystemPrompt:   askSystemPrompt,
		ExpectedOutput: domain.OutputResponse,
		Operation:      domain.OperationAsk,
	})
}

func (s *Session) collectionCommand(ctx context.Context, prompt, task string, op domain.Operation) error {
	if err := s.EnsureCollectionName(ctx, prompt); err != nil {
		return err
	}
	return s.ProcessResponse(ctx, prompt, Options{
		SystemPrompt:   s.BuildSystemPrompt(ctx, task, true),
		ExpectedOutput: domain.OutputCommand,
		Operation:      op,
	})
}

// EnsureCollectionName makes sure a collection is active. A lone collection is
// adopted directly; otherwise the backend is asked to pick one from the
// database's collections.
func (s *Session) EnsureCollectionName(ctx context.Context, prompt string) error {
	if s.ActiveCollection() != "" {
		return nil
	}

	listCtx, cancel := context.WithTimeout(ctx, domain.DatabaseTimeout)
	collections, err := s.db.ListCollectionNames(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(collections) == 1 {
		s.adoptCollection(collections[0])
		s.output.Println(fmt.Sprintf("Active collection set to %s. Use ai.collection to set a different collection.", collections[0]))
		return nil
	}

	picked, err := s.classify(ctx, prompt, collections)
	if err != nil {
		return err
	}
	if !slices.Contains(collections, picked) {
		return &domain.NoActiveCollectionError{
			Database:    s.db.CurrentDatabaseName(),
			Collections: collections,
		}
	}
	s.adoptCollection(picked)
	s.output.Println(fmt.Sprintf("Active collection was determined to be %s. Use ai.collection to set a different collection.", picked))
	return nil
}

// classify asks the backend which collection prompt is about. The exchange
// is not added to the conversation.
func (s *Session) classify(ctx context.Context, prompt string, collections []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, domain.ClassificationTimeout)
	defer cancel()

	s.indicator.Start(ctx)
	defer s.indicator.Stop()

	backend := s.Backend()
	started := s.now()
	text, err := backend.Generate(ctx, ports.GenerateRequest{
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "User's prompt: " + prompt}},
		SystemPrompt: classificationPrompt(collections),
	})
	if err != nil {
		err = normalize(ctx, backend.Name(), err)
		s.record(backend, domain.OperationClassify, prompt, "", err, started)
		return "", err
	}
	picked := FormatResponse(text, domain.OutputCommand)
	s.record(backend, domain.OperationClassify, prompt, picked, nil, started)
	s.logger.Debug("collection classified", map[string]interface{}{"answer": picked})
	return picked, nil
}
