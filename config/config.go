package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort  int             `yaml:"server_port"`
	Env         string          `yaml:"env"`
	LogLevel    string          `yaml:"log_level"`
	CORSOrigins []string        `yaml:"cors_allowed_origins"`
	SPADir      string          `yaml:"spa_dir"`
	Database    DatabaseConfig  `yaml:"database"`
	Auth        AuthConfig      `yaml:"auth"`
	Supabase    SupabaseConfig  `yaml:"supabase"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Storage     StorageConfig   `yaml:"storage"`
	MQ          MQConfig        `yaml:"mq"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// SupabaseConfig points at the managed backend that stores customers, loans,
// groups and templates.
type SupabaseConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// TelemetryConfig is optional; an empty key disables telemetry.
type TelemetryConfig struct {
	Key  string `yaml:"key"`
	Host string `yaml:"host"`
}

type StorageConfig struct {
	// Driver is one of "local", "minio" or "gcs".
	Driver   string      `yaml:"driver"`
	LocalDir string      `yaml:"local_dir"`
	Minio    MinioConfig `yaml:"minio"`
	GCS      GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MQConfig struct {
	// Driver is one of "none", "rabbitmq" or "pubsub".
	Driver               string         `yaml:"driver"`
	NotificationsChannel string         `yaml:"notifications_channel"`
	RabbitMQ             RabbitMQConfig `yaml:"rabbitmq"`
	PubSub               PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
	PrefetchCount   int    `yaml:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id"`
	CredentialsFile    string `yaml:"credentials_file"`
	SubscriptionSuffix string `yaml:"subscription_suffix"`
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "loantracker"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "loantracker_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	cfg := Config{
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		Env:         getEnv("ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		SPADir:      getEnv("SPA_DIR", ""),
		Database:    dbConfig,
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			JWTIssuer: getEnv("JWT_ISSUER", "loantracker"),
		},
		Supabase: SupabaseConfig{
			URL: strings.TrimSpace(getEnv("SUPABASE_URL", "")),
			Key: strings.TrimSpace(getEnv("SUPABASE_KEY", "")),
		},
		Telemetry: TelemetryConfig{
			Key:  getEnv("TELEMETRY_KEY", ""),
			Host: getEnv("TELEMETRY_HOST", ""),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "local"),
			LocalDir: getEnv("UI_STATE_DIR", ".loantracker"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "loantracker-ui"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Driver:               getEnv("MQ_DRIVER", "none"),
			NotificationsChannel: getEnv("NOTIFICATIONS_CHANNEL", "notifications"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 10),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "ignoring config file %s: %v\n", path, err)
		}
	}

	return cfg
}

// Validate checks the settings the HTTP server cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage.Driver {
	case "local", "minio", "gcs":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.MQ.Driver {
	case "none", "rabbitmq", "pubsub":
	default:
		return fmt.Errorf("unsupported MQ_DRIVER %q", c.MQ.Driver)
	}
	return nil
}

// TelemetryEnabled reports whether a telemetry key was provided.
func (c Config) TelemetryEnabled() bool {
	return strings.TrimSpace(c.Telemetry.Key) != ""
}

// overlayFile decodes a YAML file on top of the environment. Keys present in
// the file win, including false and zero; absent keys keep their value.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next := *c
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	*c = next
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		var cleaned []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return defaultValue
}
