package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	configapp "github.com/doeshing/shai-mongo/internal/application/config"
	"github.com/doeshing/shai-mongo/internal/application/commands"
	"github.com/doeshing/shai-mongo/internal/application/doctor"
	"github.com/doeshing/shai-mongo/internal/application/session"
	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/infrastructure/ai"
	"github.com/doeshing/shai-mongo/internal/infrastructure/config"
	"github.com/doeshing/shai-mongo/internal/infrastructure/credentials"
	"github.com/doeshing/shai-mongo/internal/infrastructure/database"
	"github.com/doeshing/shai-mongo/internal/infrastructure/executor"
	"github.com/doeshing/shai-mongo/internal/infrastructure/history"
	"github.com/doeshing/shai-mongo/internal/infrastructure/security"
	"github.com/doeshing/shai-mongo/internal/pkg/logger"
	"github.com/doeshing/shai-mongo/internal/ports"
	"github.com/doeshing/shai-mongo/internal/version"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Process     config.Process
	Logger      *logger.CharmLogger
	Settings    *config.FileStore
	ConfigStore *configapp.Store
	Secrets     ports.SecretStore
	Keys        credentials.Resolver
	Backends    *ai.Factory
	History     history.Repository
	Guardrail   *security.Guardrail

	dbOnce sync.Once
	db     *database.Mongo
	dbErr  error
}

// UI are the terminal adapters a session talks to.
type UI struct {
	Input     ports.InputSink
	Output    ports.OutputSink
	Indicator ports.Indicator
}

// BuildContainer constructs the dependency graph. Nothing here touches the
// network; the database connects on first use.
func BuildContainer(ctx context.Context, proc config.Process, defaults domain.Settings) (*Container, error) {
	log := logger.NewStd(proc.Verbose)
	if !proc.Verbose && proc.LogLevel != "" {
		log.SetLevel(proc.LogLevel)
	}

	if err := os.MkdirAll(proc.HomeDir, domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create %s: %w", proc.HomeDir, err)
	}

	kv := config.NewFileStore(proc.ConfigFile)
	store, err := configapp.NewStore(ctx, kv, defaults, log)
	if err != nil {
		return nil, err
	}

	var secrets ports.SecretStore
	if ring, err := credentials.Open(proc.HomeDir); err != nil {
		log.Warn("keyring unavailable, API keys are read from the environment only", map[string]interface{}{"error": err.Error()})
	} else {
		secrets = ring
	}
	keys := credentials.Resolver{Secrets: secrets}

	backends := ai.NewFactory(
		ai.WithKeyResolver(keys),
		ai.WithVersion(version.Version),
		ai.WithLogger(log),
	)

	guardrail, err := security.NewGuardrail(proc.GuardrailFile)
	if err != nil {
		log.Warn("guardrail rules invalid, using defaults", map[string]interface{}{"path": proc.GuardrailFile, "error": err.Error()})
		if guardrail, err = security.NewGuardrail(""); err != nil {
			return nil, err
		}
	}

	return &Container{
		Process:     proc,
		Logger:      log,
		Settings:    kv,
		ConfigStore: store,
		Secrets:     secrets,
		Keys:        keys,
		Backends:    backends,
		History:     history.Open(proc.HistoryFile, log),
		Guardrail:   guardrail,
	}, nil
}

// Database connects to the deployment once and returns the shared client.
func (c *Container) Database(ctx context.Context) (*database.Mongo, error) {
	c.dbOnce.Do(func() {
		c.db, c.dbErr = database.Connect(ctx, c.Process.URI, c.Process.Database)
	})
	return c.db, c.dbErr
}

// Executor returns the mongosh runner writing to out.
func (c *Container) Executor(out io.Writer) *executor.MongoshExecutor {
	return executor.NewMongoshExecutor(c.Process.MongoshPath, c.Process.URI, out, os.Stderr)
}

// Doctor builds the diagnostics service. A database that fails to connect
// is reported by the service rather than here.
func (c *Container) Doctor(ctx context.Context) *doctor.Service {
	svc := &doctor.Service{
		Settings: c.ConfigStore,
		Backends: c.Backends,
		Keys:     c.Keys,
		History:  c.History,
		Security: c.Guardrail,
	}
	if db, err := c.Database(ctx); err == nil {
		svc.Database = db
	} else {
		c.Logger.Warn("database unavailable", map[string]interface{}{"error": err.Error()})
	}
	return svc
}

// NewSession creates an AI session and its command suite on ui.
func (c *Container) NewSession(ctx context.Context, ui UI) (*session.Session, *commands.Suite, error) {
	db, err := c.Database(ctx)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.New(ctx, session.Deps{
		Config:    c.ConfigStore,
		Backends:  c.Backends,
		Database:  db,
		Input:     ui.Input,
		Output:    ui.Output,
		Indicator: ui.Indicator,
		Logger:    c.Logger,
		History:   c.History,
	})
	if err != nil {
		return nil, nil, err
	}
	suite, err := commands.NewSuite(sess, c.ConfigStore, ui.Output)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, suite, nil
}

// Close releases the database client and history store.
func (c *Container) Close(ctx context.Context) {
	if c.db != nil {
		if err := c.db.Disconnect(ctx); err != nil {
			c.Logger.Debug("disconnect failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if closer, ok := c.History.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
