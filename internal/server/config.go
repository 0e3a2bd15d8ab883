package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
)

// FileConfig represents the complete server configuration
type FileConfig struct {
	Server  ServerSettings   `hcl:"server,block"`
	Store   *StoreSettings   `hcl:"store,block"`
	Catalog *CatalogSettings `hcl:"catalog,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address        string   `hcl:"address,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	LogFormat      string   `hcl:"log_format,optional"`
	Seed           int64    `hcl:"seed,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

// StoreSettings selects the room persistence backend
type StoreSettings struct {
	Backend string `hcl:"backend,optional"`
	Dir     string `hcl:"dir,optional"`
}

// CatalogSettings replaces the default card lists. All three are required
// when the block is present.
type CatalogSettings struct {
	Suspects  []string `hcl:"suspects"`
	Locations []string `hcl:"locations"`
	Weapons   []string `hcl:"weapons"`
}

// envOverrides are applied on top of the file.
type envOverrides struct {
	Address  string `env:"SLEUTH_ADDR"`
	LogLevel string `env:"SLEUTH_LOG_LEVEL"`
	Store    string `env:"SLEUTH_STORE"`
	StoreDir string `env:"SLEUTH_STORE_DIR"`
	Seed     int64  `env:"SLEUTH_SEED"`
}

// DefaultFileConfig returns default server configuration
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Server: ServerSettings{
			Address:   ":8080",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Store: &StoreSettings{
			Backend: StoreMemory,
		},
	}
}

// LoadFileConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadFileConfig(filename string) (*FileConfig, error) {
	if filename == "" {
		return DefaultFileConfig(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultFileConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config FileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *FileConfig) applyDefaults() {
	defaults := DefaultFileConfig()
	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = defaults.Server.LogFormat
	}
	if c.Store == nil {
		c.Store = defaults.Store
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
}

// ApplyEnv overrides fields from SLEUTH_* environment variables.
func (c *FileConfig) ApplyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Address != "" {
		c.Server.Address = env.Address
	}
	if env.LogLevel != "" {
		c.Server.LogLevel = env.LogLevel
	}
	if env.Store != "" {
		c.Store.Backend = env.Store
	}
	if env.StoreDir != "" {
		c.Store.Dir = env.StoreDir
	}
	if env.Seed != 0 {
		c.Server.Seed = env.Seed
	}
	return nil
}

// CatalogOrDefault returns the configured catalog, or the classic one when
// no catalog block was given.
func (c *FileConfig) CatalogOrDefault() deck.Catalog {
	if c.Catalog == nil {
		return deck.DefaultCatalog()
	}
	return deck.Catalog{
		Suspects:  toCards(c.Catalog.Suspects),
		Locations: toCards(c.Catalog.Locations),
		Weapons:   toCards(c.Catalog.Weapons),
	}
}

// Validate validates the server configuration
func (c *FileConfig) Validate() error {
	_, port, err := net.SplitHostPort(c.Server.Address)
	if err != nil {
		return fmt.Errorf("%w: invalid address %q: %v", gameerr.ErrInvalidConfiguration, c.Server.Address, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("%w: invalid port %q", gameerr.ErrInvalidConfiguration, port)
	}

	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("%w: invalid log level %q", gameerr.ErrInvalidConfiguration, c.Server.LogLevel)
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", gameerr.ErrInvalidConfiguration, c.Server.LogFormat)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("%w: file store requires a dir", gameerr.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", gameerr.ErrInvalidConfiguration, c.Store.Backend)
	}

	return c.CatalogOrDefault().Validate()
}

func toCards(names []string) []deck.Card {
	cards := make([]deck.Card, len(names))
	for i, n := range names {
		cards[i] = deck.Card(n)
	}
	return cards
}
