package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Session is the part of the AI session the command suite drives.
type Session interface {
	Ask(ctx context.Context, prompt string) error
	Shell(ctx context.Context, prompt string) error
	Aggregate(ctx context.Context, prompt string) error
	Query(ctx context.Context, prompt string) error
	Data(ctx context.Context, prompt string) error
	General(ctx context.Context, prompt string) error
	Collection(name string)
	Clear()
	ActiveCollection() string
	Backend() ports.Backend
}

// Settings is the configuration store as seen by the suite.
type Settings interface {
	Get(key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
	Describe() string
}

// Suite is the ai.* command namespace.
type Suite struct {
	*Registry
	session  Session
	settings Settings
	out      ports.OutputSink
}

// NewSuite registers every AI command once.
func NewSuite(sess Session, settings Settings, out ports.OutputSink) (*Suite, error) {
	s := &Suite{session: sess, settings: settings, out: out}

	registry, err := NewRegistry(out,
		Register(Spec{
			Name:        "ask",
			Description: "ask MongoDB questions",
			Example:     "ai.ask how do I run queries in mongosh?",
			Args:        ArgsRequiredOrHelp,
		}, s.prompted(sess.Ask)),
		Register(Spec{
			Name:        "data",
			Description: "generate data-related mongosh commands",
			Example:     "ai.data insert some sample user info",
			Args:        ArgsRequired,
		}, s.prompted(sess.Data)),
		Register(Spec{
			Name:        "query",
			Description: "generate a MongoDB query",
			Example:     `ai.query find documents where name = "Ada"`,
			Args:        ArgsRequired,
		}, s.prompted(sess.Query)),
		Register(Spec{
			Name:        "aggregate",
			Alias:       "find",
			Description: "generate a MongoDB aggregation",
			Example:     `ai.aggregate find documents where name = "Ada"`,
			Args:        ArgsRequired,
		}, s.prompted(sess.Aggregate)),
		Register(Spec{
			Name:        "collection",
			Description: "set the active collection",
			Example:     `ai.collection("users")`,
			Args:        ArgsOptional,
		}, func(_ context.Context, args string) error {
			sess.Collection(Unquote(args))
			return nil
		}),
		Register(Spec{
			Name:        "shell",
			Alias:       "cmd",
			Description: "generate administrative mongosh commands",
			Example:     "ai.shell get sharding info",
			Args:        ArgsRequired,
		}, s.prompted(sess.Shell)),
		Register(Spec{
			Name:        "general",
			Description: "use your model for general questions",
			Example:     "ai.general what is the meaning of life?",
			Args:        ArgsRequired,
		}, s.prompted(sess.General)),
		Register(Spec{
			Name:        "config",
			Description: "configure the AI commands",
			Example:     `ai.config.set("provider", "ollama")`,
			Args:        ArgsOptional,
		}, s.config),
		Register(Spec{
			Name:        "provider",
			Description: "switch the model provider",
			Example:     `ai.provider("openai")`,
			Args:        ArgsRequired,
		}, s.switchTo(domain.ConfigProvider)),
		Register(Spec{
			Name:        "model",
			Description: "switch the model of the current provider",
			Example:     `ai.model("gpt-4o")`,
			Args:        ArgsRequired,
		}, s.switchTo(domain.ConfigModel)),
		Register(Spec{
			Name:        "clear",
			Description: "clear the conversation and active collection",
			Example:     "ai.clear",
			Args:        ArgsNone,
		}, func(context.Context, string) error {
			sess.Clear()
			return nil
		}),
		Register(Spec{
			Name:        "help",
			Description: "show this help",
			Example:     "ai.help",
			Args:        ArgsNone,
			Hidden:      true,
		}, func(context.Context, string) error {
			out.Println(s.Help())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	s.Registry = registry
	return s, nil
}

// Help renders the full command table.
func (s *Suite) Help() string {
	backend := s.session.Backend()
	return FormatHelp(s.Visible(), HelpContext{
		Provider:   backend.Name(),
		Model:      backend.Model(),
		Collection: s.session.ActiveCollection(),
	})
}

// prompted adapts a session operation. A request cancelled because a newer
// one replaced it is not an error for the user who issued the newer one.
func (s *Suite) prompted(op func(context.Context, string) error) Handler {
	return func(ctx context.Context, prompt string) error {
		err := op(ctx, prompt)
		if errors.Is(err, domain.ErrSuperseded) {
			return nil
		}
		return err
	}
}

func (s *Suite) switchTo(key domain.ConfigKey) Handler {
	return func(ctx context.Context, args string) error {
		value := Unquote(args)
		if err := s.settings.Set(ctx, string(key), value); err != nil {
			return err
		}
		s.out.Println(fmt.Sprintf("Switched to %s %s", value, key))
		return nil
	}
}

// config handles ai.config, ai.config get <key> and ai.config set <key> <value>.
func (s *Suite) config(ctx context.Context, args string) error {
	tokens := Tokenize(args)
	if len(tokens) > 0 && (tokens[0] == "get" || tokens[0] == "set") {
		tokens = tokens[1:]
	}

	switch len(tokens) {
	case 0:
		s.out.Println(s.settings.Describe())
		return nil
	case 1:
		key := Unquote(tokens[0])
		value, err := s.settings.Get(key)
		if err != nil {
			return err
		}
		s.out.Println(fmt.Sprintf("%s: %v", key, value))
		return nil
	default:
		key := Unquote(tokens[0])
		value := ParseValue(strings.Join(tokens[1:], " "))
		if err := s.settings.Set(ctx, key, value); err != nil {
			return err
		}
		s.out.Println(fmt.Sprintf("%s set to %v", key, value))
		return nil
	}
}
