package configs

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported property backends.
const (
	DataBackendSupabase = "supabase"
	DataBackendPostgres = "postgres"
)

const minSessionSecretLen = 32

type RESTconfig struct {
	Port string
}

type SupabaseConfig struct {
	URL           string
	AnonKey       string
	JWTSecret     string // enables local token verification when set
	PropertyTable string
	ClientTimeout time.Duration
}

type DBconfig struct {
	Backend  string
	URL      string
	MaxConns int
}

type SessionConfig struct {
	Secret       string
	SecureCookie bool
	MaxAge       time.Duration
}

type WebConfig struct {
	ListingsRequireAuth bool
	CORSAllowedOrigins  []string
}

type StdoutLogConfig struct {
	Level  string
	IsJSON bool
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

type RabbitMQConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

// AppConfig holds the whole application configuration.
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	Supabase     SupabaseConfig
	Database     DBconfig
	Session      SessionConfig
	Web          WebConfig
	StdoutLogger StdoutLogConfig
	FluentBit    FluentBitConfig
	RabbitMQ     RabbitMQConfig
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "alquileres-web")
	cfg.Rest.Port = getEnvAsString("PORT", "3000")

	cfg.Supabase.URL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	cfg.Supabase.AnonKey = os.Getenv("SUPABASE_ANON_KEY")
	cfg.Supabase.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	cfg.Supabase.PropertyTable = getEnvAsString("SUPABASE_PROPERTY_TABLE", "properties")
	cfg.Supabase.ClientTimeout = getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second)

	cfg.Database.Backend = strings.ToLower(getEnvAsString("DATA_BACKEND", DataBackendSupabase))
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxConns = getEnvAsInt("DATABASE_MAX_CONNS", 10)

	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	cfg.Session.SecureCookie = getEnvAsBool("SESSION_SECURE_COOKIE", false)
	cfg.Session.MaxAge = getEnvAsDuration("SESSION_MAX_AGE", 7*24*time.Hour)

	cfg.Web.ListingsRequireAuth = getEnvAsBool("LISTINGS_REQUIRE_AUTH", true)
	cfg.Web.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.IsJSON = getEnvAsBool("STDOUT_LOG_JSON", false)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		cfg.RabbitMQ.Exchange = getEnvAsString("RABBITMQ_AUTH_EXCHANGE", "auth_events")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed required value at once.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Supabase.URL == "" {
		errs = append(errs, errors.New("SUPABASE_URL environment variable is required"))
	} else if u, err := url.Parse(c.Supabase.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("SUPABASE_URL is not a valid absolute URL: %q", c.Supabase.URL))
	}
	if c.Supabase.AnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY environment variable is required"))
	}

	switch c.Database.Backend {
	case DataBackendSupabase:
	case DataBackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL environment variable is required when DATA_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", DataBackendSupabase, DataBackendPostgres, c.Database.Backend))
	}

	if len(c.Session.Secret) < minSessionSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen))
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED=true"))
	}

	return errors.Join(errs...)
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil || d <= 0 {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvAsList splits a comma-separated value and drops empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
