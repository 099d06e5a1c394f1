package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "EDU"

type Config struct {
	APIBaseURL     string
	HTTPTimeout    time.Duration
	StorePath      string
	LowTimeSeconds int
	Theme          string
	LogLevel       string
	LogPretty      bool
}

// LowTimeThreshold is the remaining time below which the countdown is flagged.
func (c Config) LowTimeThreshold() time.Duration {
	return time.Duration(c.LowTimeSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", "http://127.0.0.1:8000")
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("store_path", "edu-assist.db")
	v.SetDefault("low_time_seconds", 60)
	v.SetDefault("theme", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
}

// Load reads EDU_* environment variables, after loading dotEnvPath into the
// environment when that file exists. An empty path skips the file.
func Load(dotEnvPath string) (Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return Config{}, errors.Wrapf(err, "load %s", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "stat %s", dotEnvPath)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := Config{
		APIBaseURL:     strings.TrimSpace(v.GetString("api_base_url")),
		HTTPTimeout:    v.GetDuration("http_timeout"),
		StorePath:      strings.TrimSpace(v.GetString("store_path")),
		LowTimeSeconds: v.GetInt("low_time_seconds"),
		Theme:          strings.TrimSpace(v.GetString("theme")),
		LogLevel:       v.GetString("log_level"),
		LogPretty:      v.GetBool("log_pretty"),
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, errors.Errorf("http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.LowTimeSeconds <= 0 {
		return Config{}, errors.Errorf("low_time_seconds must be positive, got %d", cfg.LowTimeSeconds)
	}

	log.Debug().
		Str("apiBaseUrl", cfg.APIBaseURL).
		Dur("httpTimeout", cfg.HTTPTimeout).
		Str("storePath", cfg.StorePath).
		Msg("Config loaded")
	return cfg, nil
}
