package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Strategy names understood by the strategy registry.
const (
	StrategyCrossing      = "crossing"
	StrategyRSI           = "rsi"
	StrategyBreakout      = "breakout"
	StrategyMeanReversion = "mean_reversion"
)

// Feed and sink backends.
const (
	FeedDeriv = "deriv"
	FeedKafka = "kafka"

	SinkLog      = "log"
	SinkKafka    = "kafka"
	SinkRedis    = "redis"
	SinkRabbitMQ = "rabbitmq"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"3"`
		MaxAgeDays int    `yaml:"max_age_days" default:"7"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port" default:"3000" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"20" validate:"gte=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"10" validate:"gte=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Trading Trading `yaml:"trading"`

	Feed struct {
		Type         string        `yaml:"type" default:"deriv" validate:"oneof=deriv kafka"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"900ms" validate:"gt=0"`
	} `yaml:"feed"`

	Deriv struct {
		AppID          string        `yaml:"app_id" default:"1089"`
		APIToken       string        `yaml:"api_token"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.derivws.com/websockets/v3" validate:"required"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"2s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"5s" validate:"gt=0"`
	} `yaml:"deriv"`

	Sinks []string `yaml:"sinks" default:"[\"log\"]" validate:"min=1,dive,oneof=log kafka redis rabbitmq"`

	Pipeline struct {
		BufferSize int           `yaml:"buffer_size" default:"256" validate:"gt=0"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
	} `yaml:"pipeline"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TicksTopic   string   `yaml:"ticks_topic" default:"ticks"`
		IntentsTopic string   `yaml:"intents_topic" default:"trade-intents"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"10ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"trading-bot"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	Redis struct {
		Addr          string        `yaml:"addr" default:"localhost:6379"`
		Password      string        `yaml:"password"`
		DB            int           `yaml:"db"`
		ChannelPrefix string        `yaml:"channel_prefix" default:"signals.intents"`
		LastIntentTTL time.Duration `yaml:"last_intent_ttl" default:"1h"`
	} `yaml:"redis"`

	RabbitMQ struct {
		URL        string `yaml:"url"`
		Exchange   string `yaml:"exchange" default:"trading"`
		RoutingKey string `yaml:"routing_key" default:"trade.intent"`
	} `yaml:"rabbitmq"`
}

// Trading holds the parameters of one instrument's evaluation loop.
type Trading struct {
	Instrument   string        `yaml:"instrument" default:"frxEURUSD" validate:"required"`
	Balance      float64       `yaml:"balance" default:"100" validate:"gt=0"`
	RiskFraction float64       `yaml:"risk_fraction" default:"0.02" validate:"gt=0,lte=1"`
	ShortWindow  int           `yaml:"short_window" default:"5" validate:"gt=0"`
	LongWindow   int           `yaml:"long_window" default:"20" validate:"gt=0"`
	RSIPeriod    int           `yaml:"rsi_period" default:"14" validate:"gt=0"`
	TickInterval time.Duration `yaml:"tick_interval" default:"1s" validate:"gt=0"`
	Strategies   []string      `yaml:"strategies" default:"[\"crossing\",\"rsi\",\"breakout\",\"mean_reversion\"]" validate:"min=1,dive,oneof=crossing rsi breakout mean_reversion"`
	JournalSize  int           `yaml:"journal_size" default:"500" validate:"gt=0"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Parse applies defaults and then overlays the YAML document.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, then applies
// environment overrides before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// ApplyEnv overrides fields from environment variables looked up through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT: %v", ErrInvalid, err)
		}
		c.Server.Port = port
	}
	if v := getenv("API_ID"); v != "" {
		c.Deriv.AppID = v
	}
	if v := getenv("API_KEY"); v != "" {
		c.Deriv.APIToken = v
	}
	if v := getenv("INSTRUMENT"); v != "" {
		c.Trading.Instrument = v
	}
	if v := getenv("BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: BALANCE: %v", ErrInvalid, err)
		}
		c.Trading.Balance = f
	}
	if v := getenv("RISK"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RISK: %v", ErrInvalid, err)
		}
		c.Trading.RiskFraction = f
	}
	if v := getenv("STRATEGIES"); v != "" {
		c.Trading.Strategies = splitList(v)
	}
	if v := getenv("FEED"); v != "" {
		c.Feed.Type = v
	}
	if v := getenv("SINKS"); v != "" {
		c.Sinks = splitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks struct rules and the cross-field requirements of the
// selected feed and sinks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on '%s' (value %v)", ErrInvalid, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	needKafka := c.Feed.Type == FeedKafka
	for _, s := range c.Sinks {
		switch s {
		case SinkKafka:
			needKafka = true
		case SinkRedis:
			if c.Redis.Addr == "" {
				return fmt.Errorf("%w: redis.addr is required for the redis sink", ErrInvalid)
			}
		case SinkRabbitMQ:
			if c.RabbitMQ.URL == "" {
				return fmt.Errorf("%w: rabbitmq.url is required for the rabbitmq sink", ErrInvalid)
			}
		}
	}
	if needKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers cannot be empty when kafka is used", ErrInvalid)
	}
	if c.Feed.Type == FeedDeriv && c.Deriv.AppID == "" {
		return fmt.Errorf("%w: deriv.app_id is required for the deriv feed", ErrInvalid)
	}
	return nil
}

// HasSink reports whether name is among the configured sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
