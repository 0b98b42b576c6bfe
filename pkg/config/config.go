// Package config loads pricebot settings from a YAML file.
//
// A missing file yields Default(), which reproduces the standard board map and
// price tables. Secrets never live in the file: the monday.com token and the
// Redis password come from the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/persistence/middleware"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// EnvMondayToken holds the monday.com API token.
	EnvMondayToken = "MONDAY_API_TOKEN"
	// EnvRedisPassword overrides store.redis.password.
	EnvRedisPassword = "PRICEBOT_REDIS_PASSWORD"
	// EnvSessionKey holds the base64 AES-256 key that seals stored sessions.
	EnvSessionKey = "PRICEBOT_SESSION_KEY"
	// EnvSessionFallbackKeys lists retired keys, comma separated, still accepted for reads.
	EnvSessionFallbackKeys = "PRICEBOT_SESSION_FALLBACK_KEYS"
	// EnvConfigPath is read when no --config flag is given.
	EnvConfigPath = "PRICEBOT_CONFIG"

	DefaultPath = "pricebot.yaml"

	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	CommandPrefix string `mapstructure:"command_prefix" yaml:"command_prefix"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	// MaxInputSize caps a chat message in bytes once control characters are stripped.
	MaxInputSize int `mapstructure:"max_input_size" yaml:"max_input_size"`

	// Partitions is searched in order; several codes may share a board.
	Partitions []Partition                `mapstructure:"partitions" yaml:"partitions"`
	Margins    []MarginGroup              `mapstructure:"margins" yaml:"margins"`
	CopyRates  map[string]decimal.Decimal `mapstructure:"copy_rates" yaml:"copy_rates"`

	Search    SearchConfig `mapstructure:"search" yaml:"search"`
	Store     StoreConfig  `mapstructure:"store" yaml:"store"`
	Monday    MondayConfig `mapstructure:"monday" yaml:"monday"`
	HTTP      HTTPConfig   `mapstructure:"http" yaml:"http"`
	BoardsDir string       `mapstructure:"boards_dir" yaml:"boards_dir,omitempty"`
	// LookupCommand replaces monday.com with a local executable.
	LookupCommand CommandConfig `mapstructure:"lookup_command" yaml:"lookup_command,omitempty"`
}

type Partition struct {
	Code  string `mapstructure:"code" yaml:"code"`
	Board string `mapstructure:"board" yaml:"board"`
}

type MarginGroup struct {
	Name    string          `mapstructure:"name" yaml:"name"`
	Codes   []string        `mapstructure:"codes" yaml:"codes,flow"`
	Low     decimal.Decimal `mapstructure:"low" yaml:"low"`
	Mid     decimal.Decimal `mapstructure:"mid" yaml:"mid"`
	Percent decimal.Decimal `mapstructure:"percent" yaml:"percent"`
}

type SearchConfig struct {
	// Timeout bounds each board lookup; zero leaves it to the transport.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Concurrency caps in-flight lookups; zero is unbounded.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

type StoreConfig struct {
	Driver  string        `mapstructure:"driver" yaml:"driver"`
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`

	EncryptionKey string   `mapstructure:"-" yaml:"-"`
	FallbackKeys  []string `mapstructure:"-" yaml:"-"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"-"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Lock enables the distributed per-user lock for multi-replica deployments.
	Lock bool `mapstructure:"lock" yaml:"lock"`
}

type MondayConfig struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	APIVersion string        `mapstructure:"api_version" yaml:"api_version"`
	CostColumn string        `mapstructure:"cost_column" yaml:"cost_column"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Token      string        `mapstructure:"-" yaml:"-"`
}

type CommandConfig struct {
	Path string            `mapstructure:"path" yaml:"path"`
	Args []string          `mapstructure:"args" yaml:"args,omitempty"`
	Env  map[string]string `mapstructure:"env" yaml:"env,omitempty"`
	Dir  string            `mapstructure:"dir" yaml:"dir,omitempty"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DefaultPartitions is the standard board map.
func DefaultPartitions() []Partition {
	const shared = "2698281907"
	return []Partition{
		{Code: "ES", Board: "169441688"},
		{Code: "IT", Board: "166197610"},
		{Code: "EN", Board: "391082834"},
		{Code: "FR", Board: "307948771"},
		{Code: "DE", Board: "307949567"},
		{Code: "PT", Board: "168436762"},
		{Code: "PL", Board: "256668264"},
		{Code: "NL", Board: "485360488"},
		{Code: "RU", Board: shared},
		{Code: "LT", Board: shared},
		{Code: "FI", Board: shared},
		{Code: "SE", Board: shared},
		{Code: "CZ", Board: shared},
		{Code: "SK", Board: shared},
		{Code: "GR", Board: shared},
		{Code: "HU", Board: shared},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	groups := pricing.DefaultGroups()
	margins := make([]MarginGroup, 0, len(groups))
	for _, g := range groups {
		margins = append(margins, MarginGroup{
			Name:    g.Name,
			Codes:   g.Codes,
			Low:     g.Band.Low,
			Mid:     g.Band.Mid,
			Percent: g.Band.Percent,
		})
	}

	return &Config{
		CommandPrefix: "/price",
		LogLevel:      "info",
		MaxInputSize:  4096,
		Partitions:    DefaultPartitions(),
		Margins:       margins,
		CopyRates:     pricing.DefaultCopyRates(),
		Search: SearchConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			LockTTL: 30 * time.Second,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "pricebot:session:",
			},
		},
		Monday: MondayConfig{
			URL:        "https://api.monday.com/v2",
			APIVersion: "2023-10",
			CostColumn: "_",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults, applies environment secrets and validates
// the result. An empty path falls back to $PRICEBOT_CONFIG, then pricebot.yaml;
// a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.Decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges YAML data into c. Sections present in data replace the
// corresponding defaults; lists and maps are replaced, not merged.
func (c *Config) Decode(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			decimalHook,
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return data, nil
	}
}

// ApplyEnv fills secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvMondayToken); v != "" {
		c.Monday.Token = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv(EnvSessionKey); v != "" {
		c.Store.EncryptionKey = v
	}
	if v := os.Getenv(EnvSessionFallbackKeys); v != "" {
		c.Store.FallbackKeys = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Store.FallbackKeys = append(c.Store.FallbackKeys, k)
			}
		}
	}
}

// Validate reports the first structural problem found.
func (c *Config) Validate() error {
	if c.CommandPrefix == "" || strings.ContainsAny(c.CommandPrefix, " \t\r\n") {
		return fmt.Errorf("%w: command_prefix must be a single non-empty token", ErrInvalid)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("%w: max_input_size must be positive", ErrInvalid)
	}
	if len(c.Partitions) == 0 {
		return fmt.Errorf("%w: at least one partition is required", ErrInvalid)
	}
	for i, p := range c.Partitions {
		if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Board) == "" {
			return fmt.Errorf("%w: partitions[%d] needs both code and board", ErrInvalid, i)
		}
	}
	for i, g := range c.Margins {
		if g.Low.IsNegative() || g.Mid.IsNegative() || g.Percent.IsNegative() {
			return fmt.Errorf("%w: margins[%d] has a negative value", ErrInvalid, i)
		}
	}
	if _, err := c.Calculator(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Search.Timeout < 0 || c.Search.Concurrency < 0 {
		return fmt.Errorf("%w: search timeout and concurrency must not be negative", ErrInvalid)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis driver", ErrInvalid)
		}
		if c.Store.Redis.TTL < 0 {
			return fmt.Errorf("%w: store.redis.ttl must not be negative", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	if _, err := c.Encryption(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// PartitionTable returns the partitions in search order.
func (c *Config) PartitionTable() []domain.Partition {
	out := make([]domain.Partition, 0, len(c.Partitions))
	for _, p := range c.Partitions {
		out = append(out, domain.Partition{
			LanguageCode: domain.NormalizeCode(p.Code),
			ID:           strings.TrimSpace(p.Board),
		})
	}
	return out
}

// Calculator builds the price calculator from the margin and copy tables.
func (c *Config) Calculator() (*pricing.Calculator, error) {
	groups := make([]pricing.Group, 0, len(c.Margins))
	for i, g := range c.Margins {
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("margins[%d]", i)
		}
		groups = append(groups, pricing.Group{
			Name:  name,
			Codes: g.Codes,
			Band:  pricing.Band{Low: g.Low, Mid: g.Mid, Percent: g.Percent},
		})
	}
	return pricing.NewCalculator(groups, c.CopyRates)
}

// Encryption decodes the session keys. It returns nil when sessions are
// stored in clear text.
func (c *Config) Encryption() (*middleware.EncryptionConfig, error) {
	if c.Store.EncryptionKey == "" {
		if len(c.Store.FallbackKeys) > 0 {
			return nil, fmt.Errorf("%s is set without %s", EnvSessionFallbackKeys, EnvSessionKey)
		}
		return nil, nil
	}

	active, err := base64.StdEncoding.DecodeString(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", EnvSessionKey, err)
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Store.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] is not valid base64: %w", EnvSessionFallbackKeys, i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	return enc, nil
}

// YAML renders the effective configuration without secrets.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
