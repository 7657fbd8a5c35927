package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL     string        `env:"OPINIONMAP_DATABASE_URL"`
	DBMaxConns      int32         `env:"OPINIONMAP_DB_MAX_CONNS" envDefault:"10"`
	Storage         string        `env:"OPINIONMAP_STORAGE" envDefault:"postgres"`
	MigrationsDir   string        `env:"OPINIONMAP_MIGRATIONS_DIR" envDefault:"internal/migrations"`
	ServerAddr      string        `env:"OPINIONMAP_SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	RequestTimeout  time.Duration `env:"OPINIONMAP_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"OPINIONMAP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"OPINIONMAP_LOG_LEVEL" envDefault:"info"`

	// Defaults for new conversations.
	MinVotes       int    `env:"OPINIONMAP_MIN_VOTES" envDefault:"7"`
	Components     int    `env:"OPINIONMAP_N_COMPONENTS" envDefault:"2"`
	UnvotedPolicy  string `env:"OPINIONMAP_UNVOTED_POLICY" envDefault:"drop"`
	ModerationMode string `env:"OPINIONMAP_MODERATION_MODE"`
	CountSource    string `env:"OPINIONMAP_COUNT_SOURCE" envDefault:"ingested"`

	// Bounds on vote ids and the dense matrix they span.
	MaxParticipantID int `env:"OPINIONMAP_MAX_PARTICIPANT_ID" envDefault:"1000000"`
	MaxStatementID   int `env:"OPINIONMAP_MAX_STATEMENT_ID" envDefault:"100000"`
	MaxMatrixCells   int `env:"OPINIONMAP_MAX_MATRIX_CELLS" envDefault:"67108864"`

	Postgres Postgres
}

// Postgres holds the parts DatabaseURL is assembled from when it is unset.
type Postgres struct {
	User     string `env:"POSTGRES_USER" envDefault:"opinionmap"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"opinionmap_pass"`
	DB       string `env:"POSTGRES_DB" envDefault:"opinionmap"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// DSN renders the connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.Postgres.DSN()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("%w: OPINIONMAP_STORAGE must be %q or %q, got %q", domain.ErrConfiguration, StoragePostgres, StorageMemory, c.Storage)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: OPINIONMAP_LOG_LEVEL: %v", domain.ErrConfiguration, err)
	}
	if err := c.VoteLimits().Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	_, err := c.ConversationDefaults()
	return err
}

// VoteLimits returns the id and matrix size bounds for incoming votes.
func (c *Config) VoteLimits() vote.Limits {
	return vote.Limits{
		MaxParticipantID: c.MaxParticipantID,
		MaxStatementID:   c.MaxStatementID,
		MaxCells:         c.MaxMatrixCells,
	}
}

// ConversationDefaults returns the settings new conversations start with.
func (c *Config) ConversationDefaults() (conversation.Settings, error) {
	policy, err := matrix.ParsePolicy(c.UnvotedPolicy)
	if err != nil {
		return conversation.Settings{}, err
	}
	mode, err := statement.ParseMode(c.ModerationMode)
	if err != nil {
		return conversation.Settings{}, err
	}
	s := conversation.Settings{
		ModerationMode: mode,
		MinVotes:       c.MinVotes,
		Components:     c.Components,
		UnvotedPolicy:  policy,
		CountSource:    conversation.CountSource(c.CountSource),
	}
	if err := s.Validate(); err != nil {
		return conversation.Settings{}, err
	}
	return s, nil
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
