package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/pkg/filesystem"
)

// Viper keys for process settings.
const (
	KeyURI         = "uri"
	KeyDatabase    = "db"
	KeyHome        = "home"
	KeyLogLevel    = "log-level"
	KeyVerbose     = "verbose"
	KeyMongosh     = "mongosh"
	KeyGuardrail   = "guardrail"
	KeyHistoryPath = "history"
)

// Process holds process-level settings. Flags win over SHAI_MONGO_* env vars,
// which win over defaults.
type Process struct {
	URI           string
	Database      string
	HomeDir       string
	ConfigFile    string
	HistoryFile   string
	GuardrailFile string
	MongoshPath   string
	LogLevel      string
	Verbose       bool
}

// NewViper returns a viper instance reading SHAI_MONGO_* env vars.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SHAI_MONGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyURI, "mongodb://localhost:27017")
	v.SetDefault(KeyHome, filepath.Join(filesystem.UserHomeDir(), ".shai-mongo"))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyMongosh, "mongosh")

	_ = v.BindEnv("ai.provider", "MONGOSH_AI_PROVIDER")
	_ = v.BindEnv("ai.model", "MONGOSH_AI_MODEL")
	_ = v.BindEnv("ai.includeSampleDocs", "MONGOSH_AI_INCLUDE_SAMPLE_DOCS")
	_ = v.BindEnv("ai.defaultCollection", "MONGOSH_AI_DEFAULT_COLLECTION")
	_ = v.BindEnv("ai.parallelRequests", "MONGOSH_AI_PARALLEL_REQUESTS")
	_ = v.BindEnv(KeyVerbose, "SHAI_DEBUG", "SHAI_MONGO_VERBOSE")
	return v
}

// LoadProcess resolves process settings from v.
func LoadProcess(v *viper.Viper) Process {
	home := v.GetString(KeyHome)
	p := Process{
		URI:           v.GetString(KeyURI),
		Database:      v.GetString(KeyDatabase),
		HomeDir:       home,
		ConfigFile:    filepath.Join(home, "config.yaml"),
		HistoryFile:   filepath.Join(home, "history.db"),
		GuardrailFile: filepath.Join(home, "guardrail.yaml"),
		MongoshPath:   v.GetString(KeyMongosh),
		LogLevel:      v.GetString(KeyLogLevel),
		Verbose:       v.GetBool(KeyVerbose),
	}
	if custom := v.GetString(KeyHistoryPath); custom != "" {
		p.HistoryFile = custom
	}
	if custom := v.GetString(KeyGuardrail); custom != "" {
		p.GuardrailFile = custom
	}
	return p
}

// AIDefaults returns the AI settings seeded from MONGOSH_AI_* env vars.
// Unknown providers fall back to the built-in default.
func AIDefaults(v *viper.Viper) domain.Settings {
	s := domain.DefaultSettings()
	if p := strings.TrimSpace(v.GetString("ai.provider")); p != "" {
		if _, ok := domain.LookupProvider(domain.ProviderName(p)); ok {
			s.Provider = domain.ProviderName(p)
		}
	}
	if m := strings.TrimSpace(v.GetString("ai.model")); m != "" {
		s.Model = m
	}
	s.IncludeSampleDocs = v.GetBool("ai.includeSampleDocs")
	s.DefaultCollection = strings.TrimSpace(v.GetString("ai.defaultCollection"))
	s.ParallelRequests = v.GetBool("ai.parallelRequests")
	return s
}

// LoadDotEnv loads each existing .env file without overriding variables
// already present in the environment.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
