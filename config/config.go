package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

type Config struct {
	DB          DBConfig
	Telegram    TelegramConfig
	HTTP        HTTPConfig
	Catalog     CatalogConfig
	Storage     string // where carts live between restarts: "memory" or "postgres"
	LogLevel    string
	AutoMigrate bool
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func (c DBConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

type TelegramConfig struct {
	Token string
}

type HTTPConfig struct {
	Address string
}

type CatalogConfig struct {
	Source       string // "file" or "postgres"
	File         string
	PriceCeiling int64 // default upper bound of the price filter
	RefreshSecs  int   // 0 disables periodic catalog reload
}

func (c Config) String() string {
	return fmt.Sprintf(
		"Storage: %s | Catalog: %s | HTTP: %s | LogLevel: %s",
		c.Storage,
		c.Catalog.Source,
		c.HTTP.Address,
		c.LogLevel,
	)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "canteen")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("catalog.source", CatalogSourceFile)
	v.SetDefault("catalog.file", "catalog.yaml")
	v.SetDefault("catalog.price_ceiling", 500)
	v.SetDefault("catalog.refresh_secs", 0)
	v.SetDefault("storage", StorageMemory)
	v.SetDefault("log.level", "info")
	v.SetDefault("auto_migrate", false)

	v.BindEnv("telegram.token", "TOKEN")

	cfg := &Config{
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Database: v.GetString("db.name"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("telegram.token"),
		},
		HTTP: HTTPConfig{
			Address: v.GetString("http.address"),
		},
		Catalog: CatalogConfig{
			Source:       strings.ToLower(v.GetString("catalog.source")),
			File:         v.GetString("catalog.file"),
			PriceCeiling: v.GetInt64("catalog.price_ceiling"),
			RefreshSecs:  v.GetInt("catalog.refresh_secs"),
		},
		Storage:     strings.ToLower(v.GetString("storage")),
		LogLevel:    v.GetString("log.level"),
		AutoMigrate: v.GetBool("auto_migrate"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NeedsDB reports whether any configured component reads or writes PostgreSQL.
func (c *Config) NeedsDB() bool {
	return c.Storage == StoragePostgres || c.Catalog.Source == CatalogSourcePostgres
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return errors.Errorf("invalid STORAGE %q (want %s or %s)", c.Storage, StorageMemory, StoragePostgres)
	}
	switch c.Catalog.Source {
	case CatalogSourceFile, CatalogSourcePostgres:
	default:
		return errors.Errorf("invalid CATALOG_SOURCE %q (want %s or %s)", c.Catalog.Source, CatalogSourceFile, CatalogSourcePostgres)
	}
	if c.Catalog.PriceCeiling < 0 {
		c.Catalog.PriceCeiling = 0
	}
	if c.Catalog.RefreshSecs < 0 {
		c.Catalog.RefreshSecs = 0
	}
	return nil
}
