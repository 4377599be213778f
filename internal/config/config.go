// Package config provides configuration loading and structs for the tansaku server.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
	"gopkg.in/yaml.v3"
)

// Search engine names accepted by search.engine and SEARCH_ENGINE.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineElastic  = "elastic"
	EngineBleve    = "bleve"
)

// Engines lists every supported engine name.
var Engines = []string{EnginePostgres, EngineSQLite, EngineElastic, EngineBleve}

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Elastic  ElasticConfig  `yaml:"elastic"`
	Bleve    BleveConfig    `yaml:"bleve"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SearchConfig selects the engine and tunes it.
type SearchConfig struct {
	Engine string `yaml:"engine"`
	// PageSize is the number of hits requested from an inverted index per search.
	PageSize int `yaml:"page_size"`
	// MinSimilarity is the trigram similarity a title must reach to be an autocorrect
	// candidate. Zero lets every title compete.
	MinSimilarity float64 `yaml:"min_similarity"`
}

// PostgresConfig holds connection settings for the postgres engine.
type PostgresConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	SSLMode          string `yaml:"sslmode"`
	TextSearchConfig string `yaml:"text_search_config"`
	MaxConns         int    `yaml:"max_conns"`
}

// DSN returns the connection URL for the configured database.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// SQLiteConfig holds the database path for the sqlite engine.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ElasticConfig holds cluster settings for the elastic engine.
type ElasticConfig struct {
	URL      string `yaml:"url"`
	Index    string `yaml:"index"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BleveConfig holds the index path for the bleve engine. ":memory:" keeps the index
// in memory.
type BleveConfig struct {
	Path string `yaml:"path"`
}

// ResolveEngine maps name to a supported engine. Unknown and empty names resolve to
// postgres with ok false.
func ResolveEngine(name string) (engine string, ok bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, e := range Engines {
		if n == e {
			return e, true
		}
	}
	return EnginePostgres, false
}

// environment lists the variables that override file settings. Empty values leave
// the file setting in place.
type environment struct {
	SearchEngine       string `env:"SEARCH_ENGINE"`
	ServerHost         string `env:"SERVER_HOST"`
	Port               string `env:"PORT"`
	Debug              string `env:"DEBUG"`
	PostgresHost       string `env:"POSTGRES_HOST"`
	PostgresPort       string `env:"POSTGRES_PORT"`
	PostgresUser       string `env:"POSTGRES_USER"`
	PostgresPassword   string `env:"POSTGRES_PASSWORD"`
	PostgresDB         string `env:"POSTGRES_DB"`
	PostgresSSLMode    string `env:"POSTGRES_SSLMODE"`
	PostgresTextSearch string `env:"POSTGRES_TEXT_SEARCH_CONFIG"`
	SQLitePath         string `env:"SQLITE_PATH"`
	ElasticURL         string `env:"ELASTIC_URL"`
	ElasticIndex       string `env:"ELASTIC_INDEX"`
	ElasticUsername    string `env:"ELASTIC_USERNAME"`
	ElasticPassword    string `env:"ELASTIC_PASSWORD"`
	BlevePath          string `env:"BLEVE_PATH"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, name, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = n
	return nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
func ApplyEnv(cfg *Config) error {
	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if e.Debug != "" {
		debug, err := strconv.ParseBool(e.Debug)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", e.Debug, err)
		}
		cfg.Debug = debug
	}
	if err := setInt(&cfg.Server.Port, "PORT", e.Port); err != nil {
		return err
	}
	if err := setInt(&cfg.Postgres.Port, "POSTGRES_PORT", e.PostgresPort); err != nil {
		return err
	}
	setString(&cfg.Search.Engine, e.SearchEngine)
	setString(&cfg.Server.Host, e.ServerHost)
	setString(&cfg.Postgres.Host, e.PostgresHost)
	setString(&cfg.Postgres.User, e.PostgresUser)
	setString(&cfg.Postgres.Password, e.PostgresPassword)
	setString(&cfg.Postgres.Database, e.PostgresDB)
	setString(&cfg.Postgres.SSLMode, e.PostgresSSLMode)
	setString(&cfg.Postgres.TextSearchConfig, e.PostgresTextSearch)
	setString(&cfg.SQLite.Path, e.SQLitePath)
	setString(&cfg.Elastic.URL, e.ElasticURL)
	setString(&cfg.Elastic.Index, e.ElasticIndex)
	setString(&cfg.Elastic.Username, e.ElasticUsername)
	setString(&cfg.Elastic.Password, e.ElasticPassword)
	setString(&cfg.Bleve.Path, e.BlevePath)
	return nil
}

// LoadDotEnv loads .env from the working directory into the environment. Variables
// already set win. A missing file is not an error.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load builds the configuration from the YAML file at path (skipped when path is
// empty), then the environment, then defaults. Paths starting with "./" are relative
// to the config file's directory.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	if path != "" {
		configDir := filepath.Dir(path)
		cfg.SQLite.Path = expandPath(cfg.SQLite.Path, configDir)
		cfg.Bleve.Path = expandPath(cfg.Bleve.Path, configDir)
	}
	return &cfg, nil
}

// expandPath resolves paths starting with "./" against configDir. Other paths,
// ":memory:" and the empty path are returned unchanged.
func expandPath(path string, configDir string) string {
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
