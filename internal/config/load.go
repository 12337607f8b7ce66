package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{
		Environment: stringWithDefault("ENVIRONMENT", "development"),
		LogLevel:    stringWithDefault("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port: stringWithDefault("PORT", "8080"),
		},
		StoreDriver: stringWithDefault("STORE_DRIVER", StoreDriverMysql),
		Marketplace: MarketplaceConfig{
			Endpoints: listWithDefault("WB_ENDPOINTS", DefaultEndpoints),
			ImageHost: stringWithDefault("WB_IMAGE_HOST", DefaultImageHost),
			Origin:    stringWithDefault("WB_ORIGIN", DefaultOrigin),
			UserAgent: stringWithDefault("WB_USER_AGENT", DefaultUserAgent),
		},
		Media: MediaConfig{
			UploadDir:     stringWithDefault("UPLOAD_DIR", "./uploads"),
			PublicBaseUrl: stringWithDefault("PUBLIC_BASE_URL", ""),
		},
		TelegramBot: TelegramBotConfig{
			ChatId: stringWithDefault("TELEGRAM_CHAT_ID", ""),
			Token:  stringWithDefault("TELEGRAM_BOT_TOKEN", ""),
		},
	}

	var err error
	if cfg.Marketplace.Timeout, err = durationWithDefault("WB_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Marketplace.VerifyImages, err = boolWithDefault("WB_VERIFY_IMAGES", false); err != nil {
		return nil, err
	}
	if cfg.Media.Timeout, err = durationWithDefault("MEDIA_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Media.Workers, err = intWithDefault("MEDIA_WORKERS", 4); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverMysql:
		mysqlCfg, err := loadMysql()
		if err != nil {
			return nil, err
		}
		cfg.Mysql = mysqlCfg
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func loadMysql() (MysqlConfig, error) {
	host, err := requiredString("MYSQL_HOST")
	if err != nil {
		return MysqlConfig{}, err
	}
	user, err := requiredString("MYSQL_USER")
	if err != nil {
		return MysqlConfig{}, err
	}
	database, err := requiredString("MYSQL_DATABASE")
	if err != nil {
		return MysqlConfig{}, err
	}
	port, err := intWithDefault("MYSQL_PORT", 3306)
	if err != nil {
		return MysqlConfig{}, err
	}
	return MysqlConfig{
		Host:     host,
		Port:     port,
		Username: user,
		Password: stringWithDefault("MYSQL_PASSWORD", ""),
		Database: database,
	}, nil
}

// HTTPTimeout is the longest timeout any outbound client needs.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Marketplace.Timeout >= c.Media.Timeout {
		return c.Marketplace.Timeout
	}
	return c.Media.Timeout
}
