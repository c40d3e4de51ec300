package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// MaxGeminiKeys - сколько пронумерованных ключей GEMINI_API_KEY_N читается из окружения.
const MaxGeminiKeys = 10

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8000"`
	SecretsDir  string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"writingway"`
	DBName        string        `envconfig:"DB_NAME" default:"writingway"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBConnRetries int           `envconfig:"DB_CONNECT_RETRIES" default:"30"`
	DBRetryDelay  time.Duration `envconfig:"DB_CONNECT_RETRY_DELAY" default:"2s"`
	RunMigrations bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	DBPassword    string        `ignored:"true"`

	// Redis: токены, история подсказок, rate limit
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// RabbitMQ: пусто = события не публикуются
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`
	EventsQueue string `envconfig:"EVENTS_QUEUE" default:"writingway_events"`

	// JWT & passwords
	JWTSecret       string        `ignored:"true"`
	PasswordPepper  string        `ignored:"true"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"168h"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`

	// Rate limits, запросов в минуту на IP
	AuthRateLimit     uint `envconfig:"AUTH_RATE_LIMIT" default:"10"`
	GuestRateLimit    uint `envconfig:"GUEST_RATE_LIMIT" default:"30"`
	RealtimeRateLimit uint `envconfig:"REALTIME_RATE_LIMIT" default:"60"`

	AI       AIConfig
	Realtime RealtimeConfig
}

// AIConfig - настройки провайдеров и повторов.
type AIConfig struct {
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL" default:""`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL  string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	OllamaURL      string        `envconfig:"OLLAMA_URL" default:""`
	OllamaModel    string        `envconfig:"OLLAMA_MODEL" default:"llama3"`
	Timeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	MaxRetries     int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"AI_RETRY_DELAY" default:"2s"`
	MaxTokens      int           `envconfig:"AI_MAX_TOKENS" default:"1000"`
	Temperature    float32       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	LongTextChars  int           `envconfig:"AI_LONG_TEXT_THRESHOLD" default:"8000"`
	QuotaCooldown  time.Duration `envconfig:"GEMINI_QUOTA_COOLDOWN" default:"1h"`
	MaxKeyAttempts int           `envconfig:"GEMINI_MAX_KEY_ATTEMPTS" default:"3"`

	OpenAIAPIKey  string   `ignored:"true"`
	GeminiAPIKeys []string `ignored:"true"`
}

// RealtimeConfig - подсказки и автосохранение редактора.
type RealtimeConfig struct {
	SuggestionTimeout   time.Duration `envconfig:"SUGGESTION_TIMEOUT" default:"10s"`
	SuggestionMaxTokens int           `envconfig:"SUGGESTION_MAX_TOKENS" default:"50"`
	SuggestionThrottle  time.Duration `envconfig:"SUGGESTION_THROTTLE" default:"3s"`
	AutosaveDebounce    time.Duration `envconfig:"AUTOSAVE_DEBOUNCE" default:"3s"`
	HistoryTTL          time.Duration `envconfig:"SUGGESTION_HISTORY_TTL" default:"1h"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// DatabaseURL собирает DSN для pgxpool.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// IsProduction сообщает, запущен ли сервис в production-окружении.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadConfig loads configuration from an optional .env file, environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Обязательные секреты
	var src string
	if cfg.DBPassword, src = readSecretOrEnv(cfg.SecretsDir, "db_password", "DB_PASSWORD"); src == "" {
		return nil, fmt.Errorf("secret db_password is not set (file %s/db_password or DB_PASSWORD)", cfg.SecretsDir)
	}
	if cfg.JWTSecret, src = readSecretOrEnv(cfg.SecretsDir, "jwt_secret", "JWT_SECRET"); src == "" {
		return nil, fmt.Errorf("secret jwt_secret is not set (file %s/jwt_secret or JWT_SECRET)", cfg.SecretsDir)
	}

	// Необязательные секреты
	cfg.PasswordPepper, _ = readSecretOrEnv(cfg.SecretsDir, "password_pepper", "PASSWORD_PEPPER")
	cfg.RedisPassword, _ = readSecretOrEnv(cfg.SecretsDir, "redis_password", "REDIS_PASSWORD")
	cfg.AI.OpenAIAPIKey, _ = readSecretOrEnv(cfg.SecretsDir, "openai_api_key", "OPENAI_API_KEY")
	cfg.AI.GeminiAPIKeys = loadGeminiKeys(cfg.SecretsDir)

	log.Printf("Configuration loaded (env=%s, openai=%t, gemini_keys=%d, ollama=%t, rabbitmq=%t)",
		cfg.Env, cfg.AI.OpenAIAPIKey != "", len(cfg.AI.GeminiAPIKeys), cfg.AI.OllamaURL != "", cfg.RabbitMQURL != "")
	return &cfg, nil
}

// loadGeminiKeys собирает GEMINI_API_KEY_1..N и GEMINI_API_KEY без дублей.
// Значения, начинающиеся с '#', считаются закомментированными.
func loadGeminiKeys(secretsDir string) []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" || strings.HasPrefix(k, "#") {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	for i := 1; i <= MaxGeminiKeys; i++ {
		n := strconv.Itoa(i)
		k, _ := readSecretOrEnv(secretsDir, "gemini_api_key_"+n, "GEMINI_API_KEY_"+n)
		add(k)
	}
	k, _ := readSecretOrEnv(secretsDir, "gemini_api_key", "GEMINI_API_KEY")
	add(k)
	return keys
}
