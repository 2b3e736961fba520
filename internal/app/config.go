package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agritrace/agritrace-backend/internal/platform/envutil"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type Config struct {
	HTTPAddr     string
	JWTSecretKey string
	AllowOrigins []string

	BootstrapAdminAddr string
	BootstrapAdminName string

	// WeatherFeed selects the oracle adapter: "off", "synthetic" or "http".
	WeatherFeed   string
	WeatherAPIURL string
	WeatherAPIKey string

	RedisEnabled bool

	// LedgerConfigPath points at the optional YAML file with per-crop
	// weather tolerances and fixed price conversion rates.
	LedgerConfigPath string

	CropTolerances map[string]services.WeatherTolerance
	PriceRates     map[string]int64
}

type ledgerFileConfig struct {
	CropTolerances map[string]services.WeatherTolerance `yaml:"crop_tolerances"`
	PriceRates     map[string]int64                     `yaml:"price_rates"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPAddr:           envutil.String("HTTP_ADDR", ":8080"),
		JWTSecretKey:       envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		BootstrapAdminAddr: envutil.String("BOOTSTRAP_ADMIN_ADDR", ""),
		BootstrapAdminName: envutil.String("BOOTSTRAP_ADMIN_NAME", "bootstrap admin"),
		WeatherFeed:        envutil.String("WEATHER_FEED", "off"),
		WeatherAPIURL:      envutil.String("WEATHER_API_URL", ""),
		WeatherAPIKey:      envutil.String("WEATHER_API_KEY", ""),
		RedisEnabled:       envutil.Bool("REDIS_ENABLED", false),
		LedgerConfigPath:   envutil.String("LEDGER_CONFIG_PATH", ""),
	}
	if origins := envutil.String("ALLOW_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	if cfg.LedgerConfigPath != "" {
		if err := cfg.loadLedgerFile(); err != nil {
			log.Warn("Ledger config file ignored", "path", cfg.LedgerConfigPath, "error", err)
		}
	}
	return cfg
}

func (c *Config) loadLedgerFile() error {
	raw, err := os.ReadFile(c.LedgerConfigPath)
	if err != nil {
		return fmt.Errorf("read ledger config: %w", err)
	}
	var file ledgerFileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse ledger config: %w", err)
	}
	if len(file.CropTolerances) > 0 {
		c.CropTolerances = make(map[string]services.WeatherTolerance, len(file.CropTolerances))
		for crop, tol := range file.CropTolerances {
			c.CropTolerances[strings.ToLower(crop)] = tol
		}
	}
	c.PriceRates = file.PriceRates
	return nil
}
