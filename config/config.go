package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port        string   `env:"PORT" envDefault:"5250"`
		GinMode     string   `env:"GIN_MODE" envDefault:"release"`
		LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	Database struct {
		// Driver selects the gorm dialector: "sqlite" or "mysql"
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		Path   string `env:"DB_PATH" envDefault:"database/dealdesk.db"`
		// DSN is used by the mysql driver only
		DSN string `env:"DB_DSN"`
	}

	Auth struct {
		JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
		TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
	}

	// Analysis holds the explicit financing and operating assumptions fed to the deal engine
	Analysis struct {
		// Share of the purchase price financed by the loan, 0-100
		LoanToValue float64 `env:"ANALYSIS_LOAN_TO_VALUE" envDefault:"75"`

		// Amortization term of the acquisition loan
		LoanTermMonths int `env:"ANALYSIS_LOAN_TERM_MONTHS" envDefault:"360"`

		// Percent of gross monthly income charged by a property manager
		ManagementFee float64 `env:"ANALYSIS_MANAGEMENT_FEE" envDefault:"0"`

		// Percent of gross monthly income set aside for repairs and capex
		MaintenanceReserve float64 `env:"ANALYSIS_MAINTENANCE_RESERVE" envDefault:"0"`

		// Percent of gross monthly income taken by the short-term rental platform
		PlatformFee float64 `env:"ANALYSIS_PLATFORM_FEE" envDefault:"0"`

		MaxHoldMonths int    `env:"ANALYSIS_MAX_HOLD_MONTHS" envDefault:"1200"`
		RankMetric    string `env:"ANALYSIS_RANK_METRIC" envDefault:"roi"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of scenarios per re-analysis batch
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of batches the queue can buffer
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"64"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Scheduler struct {
		Interval   time.Duration `env:"REANALYSIS_INTERVAL" envDefault:"24h"`
		RunOnStart bool          `env:"REANALYSIS_ON_START" envDefault:"true"`
	}

	RateLimit struct {
		// Empty address disables rate limiting
		RedisAddr     string `env:"REDIS_ADDR"`
		RedisPassword string `env:"REDIS_PASSWORD"`
		RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
		PerMinute     int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	}

	Geocoding struct {
		Enabled   bool   `env:"GEOCODING_ENABLED" envDefault:"false"`
		BaseURL   string `env:"GEOCODING_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent string `env:"GEOCODING_USER_AGENT" envDefault:"DealDesk Portfolio Manager/1.0"`
	}

	Notifications struct {
		TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
		TelegramChatID   string  `env:"TELEGRAM_CHAT_ID"`
		TelegramBaseURL  string  `env:"TELEGRAM_BASE_URL" envDefault:"https://api.telegram.org"`
		AlertMinROI      float64 `env:"ALERT_MIN_ROI" envDefault:"15"`
	}

	Photos struct {
		Dir      string `env:"PHOTO_DIR" envDefault:"uploads"`
		MaxBytes int64  `env:"PHOTO_MAX_BYTES" envDefault:"10485760"`
	}
}

// LoadConfig reads an optional .env file and parses the environment into a Config
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "mysql":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required when DB_DRIVER is mysql")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}

	if c.BatchProcessing.MaxBatchSize <= 0 {
		return errors.New("BATCH_MAX_SIZE must be positive")
	}
	if c.BatchProcessing.ProcessorCount <= 0 {
		return errors.New("BATCH_PROCESSOR_COUNT must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("REANALYSIS_INTERVAL must be positive")
	}
	if c.Notifications.TelegramBotToken != "" && c.Notifications.TelegramChatID == "" {
		return errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}
