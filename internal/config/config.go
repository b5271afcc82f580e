package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/quorum/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	LLM          LLMConfig                  `mapstructure:"llm"`
	Committee    CommitteeConfig            `mapstructure:"committee"`
	Strategy     StrategyConfig             `mapstructure:"strategy"`
	Analysis     AnalysisConfig             `mapstructure:"analysis"`
	Fundamentals FundamentalsConfig         `mapstructure:"fundamentals"`
	Collectors   map[string]CollectorConfig `mapstructure:"collectors"`
	Watchlist    []WatchlistItem            `mapstructure:"watchlist"`
	Schedule     ScheduleConfig             `mapstructure:"schedule"`
	Output       OutputConfig               `mapstructure:"output"`
	Metrics      MetricsConfig              `mapstructure:"metrics"`
	Tracing      TracingConfig              `mapstructure:"tracing"`
}

// LLMConfig declares backends once and groups them into tiers.
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Tiers     map[string]TierConfig     `mapstructure:"tiers"`
}

type ProviderConfig struct {
	Type     string `mapstructure:"type"` // "claude", "openai" or "ollama"
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type TierConfig struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
}

type CommitteeConfig struct {
	Growth      RoleConfig `mapstructure:"growth"`
	Policy      RoleConfig `mapstructure:"policy"`
	Value       RoleConfig `mapstructure:"value"`
	Synthesizer RoleConfig `mapstructure:"synthesizer"`
}

type RoleConfig struct {
	Tier        string        `mapstructure:"tier"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Weight      float64       `mapstructure:"weight"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

type StrategyConfig struct {
	UseLLM    bool          `mapstructure:"use_llm"`
	Tier      string        `mapstructure:"tier"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

type AnalysisConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
}

type FundamentalsConfig struct {
	// IndustryDefaults is a YAML file path; empty uses the built-in table.
	IndustryDefaults string `mapstructure:"industry_defaults"`
}

type CollectorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Markets []string      `mapstructure:"markets"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// WatchlistItem is a symbol to evaluate plus any fundamentals known for it.
type WatchlistItem struct {
	Symbol        string   `mapstructure:"symbol"`
	Name          string   `mapstructure:"name"`
	Industry      string   `mapstructure:"industry"`
	PE            *float64 `mapstructure:"pe"`
	PB            *float64 `mapstructure:"pb"`
	ROE           *float64 `mapstructure:"roe"`
	RevenueGrowth *float64 `mapstructure:"revenue_growth"`
	RDRatio       *float64 `mapstructure:"rd_ratio"`
}

type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

type OutputConfig struct {
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs", "s3" or "" to disable
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// TelegramConfig posts a short verdict message per evaluation.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Committee: CommitteeConfig{
			Growth:      RoleConfig{Tier: "fast", Timeout: 60 * time.Second, Weight: 0.35, MaxTokens: 1024, Temperature: 0.3},
			Policy:      RoleConfig{Tier: "fast", Timeout: 60 * time.Second, Weight: 0.25, MaxTokens: 1024, Temperature: 0.3},
			Value:       RoleConfig{Tier: "reasoning", Timeout: 90 * time.Second, Weight: 0.40, MaxTokens: 1536, Temperature: 0.2},
			Synthesizer: RoleConfig{Tier: "reasoning", Timeout: 120 * time.Second, MaxTokens: 2048, Temperature: 0.2},
		},
		Strategy: StrategyConfig{
			UseLLM:    true,
			Tier:      "reasoning",
			Timeout:   60 * time.Second,
			MaxTokens: 1024,
		},
		Analysis: AnalysisConfig{
			LookbackDays: 120,
		},
		Schedule: ScheduleConfig{
			Cron: "0 30 15 * * 1-5",
		},
		Output: OutputConfig{
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "./data/evaluations",
			},
			Kafka: KafkaConfig{
				Topic:    "quorum.evaluations",
				ClientID: "quorum",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			ServiceName: "quorum",
		},
	}
}

// Roles returns the committee role configs keyed by role name.
func (c CommitteeConfig) Roles() map[string]RoleConfig {
	return map[string]RoleConfig{
		"growth":      c.Growth,
		"policy":      c.Policy,
		"value":       c.Value,
		"synthesizer": c.Synthesizer,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, p := range c.LLM.Providers {
		switch p.Type {
		case "claude", "openai":
			if p.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("llm provider %q: api_key required for %s", name, p.Type))
			}
		case "ollama":
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("llm provider %q: unknown type %q", name, p.Type))
		}
	}

	for name, t := range c.LLM.Tiers {
		if t.Primary == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm tier %q: primary required", name))
		}
		for _, ref := range []string{t.Primary, t.Secondary} {
			if ref == "" {
				continue
			}
			if _, ok := c.LLM.Providers[ref]; !ok {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("llm tier %q references unknown provider %q", name, ref))
			}
		}
	}

	var weights float64
	for role, rc := range c.Committee.Roles() {
		if rc.Timeout < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("committee.%s.timeout cannot be negative", role))
		}
		if rc.Weight < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("committee.%s.weight cannot be negative, got %f", role, rc.Weight))
		}
		if len(c.LLM.Tiers) > 0 {
			if _, ok := c.LLM.Tiers[rc.Tier]; !ok {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("committee.%s references unknown tier %q", role, rc.Tier))
			}
		}
		if role != "synthesizer" {
			weights += rc.Weight
		}
	}
	if weights <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("committee weights must sum to a positive value"))
	}

	if c.Strategy.UseLLM && len(c.LLM.Tiers) > 0 {
		if _, ok := c.LLM.Tiers[c.Strategy.Tier]; !ok {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("strategy references unknown tier %q", c.Strategy.Tier))
		}
	}

	if c.Analysis.LookbackDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.lookback_days must be positive, got %d", c.Analysis.LookbackDays))
	}

	for i, w := range c.Watchlist {
		if strings.TrimSpace(w.Symbol) == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("watchlist[%d]: symbol required", i))
		}
	}

	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("schedule.cron required when schedule is enabled"))
	}

	switch c.Output.Archive.Type {
	case "":
	case "localfs":
		if c.Output.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output.archive.path required for localfs"))
		}
	case "s3":
		if c.Output.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output.archive.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Output.Archive.Type))
	}

	if c.Output.Kafka.Enabled {
		if len(c.Output.Kafka.Brokers) == 0 || c.Output.Kafka.Topic == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output.kafka needs brokers and topic when enabled"))
		}
	}

	if c.Output.Webhook.Enabled && c.Output.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("output.webhook.url required when enabled"))
	}

	if c.Output.Telegram.Enabled && (c.Output.Telegram.BotToken == "" || c.Output.Telegram.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("output.telegram needs bot_token and chat_id when enabled"))
	}

	return nil
}
