package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/rabbitmq"
)

// EventsDriver выбирает брокер, в который outbox публикует события регистратора.
type EventsDriver string

const (
	EventsDriverNone     EventsDriver = "none"
	EventsDriverKafka    EventsDriver = "kafka"
	EventsDriverRabbitMQ EventsDriver = "rabbitmq"
)

// Config описывает настройки запуска сервера регистратора.
type Config struct {
	Port        string
	MetricsAddr string
	GRPCAddr    string
	StaticDir   string

	EventsDriver       EventsDriver
	KafkaBrokers       []string
	KafkaTopic         string
	RabbitMQURL        string
	RabbitMQExchange   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxMaxPending   int
	OutboxMaxAge       time.Duration
	OutboxRetention    time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Port:               "3000",
		MetricsAddr:        ":9090",
		EventsDriver:       EventsDriverNone,
		KafkaTopic:         kafka.DefaultTopic,
		RabbitMQExchange:   rabbitmq.DefaultExchange,
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxMaxPending:   1000,
		OutboxMaxAge:       time.Minute,
		OutboxRetention:    10 * time.Minute,
		ShutdownTimeout:    5 * time.Second,
	}
}

// HTTPAddr возвращает адрес HTTP API и UI.
func (c Config) HTTPAddr() string {
	return ":" + c.Port
}

// LoadConfig читает .env (если есть) и переменные окружения.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return configFromEnv(os.LookupEnv)
}

func configFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Port = v
	}
	if v, ok := lookup("CHECKOUT_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup("CHECKOUT_GRPC_ADDR"); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := lookup("CHECKOUT_STATIC_DIR"); ok {
		cfg.StaticDir = v
	}
	if v, ok := lookup("CHECKOUT_EVENTS_DRIVER"); ok && v != "" {
		cfg.EventsDriver = EventsDriver(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup("CHECKOUT_KAFKA_TOPIC"); ok && v != "" {
		cfg.KafkaTopic = v
	}
	if v, ok := lookup("RABBITMQ_URL"); ok {
		cfg.RabbitMQURL = v
	}
	if v, ok := lookup("CHECKOUT_RABBITMQ_EXCHANGE"); ok && v != "" {
		cfg.RabbitMQExchange = v
	}
	if v, ok := lookup("CHECKOUT_OUTBOX_POLL_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CHECKOUT_OUTBOX_POLL_INTERVAL %q", v)
		}
		cfg.OutboxPollInterval = d
	}
	if v, ok := lookup("CHECKOUT_OUTBOX_RETENTION"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid CHECKOUT_OUTBOX_RETENTION %q", v)
		}
		cfg.OutboxRetention = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек брокера.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	switch c.EventsDriver {
	case EventsDriverNone, "":
	case EventsDriverKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for kafka events driver")
		}
	case EventsDriverRabbitMQ:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required for rabbitmq events driver")
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.EventsDriver)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
