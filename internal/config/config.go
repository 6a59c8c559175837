// Package config loads the report server configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the server configuration.
type Config struct {
	Addr            string
	DevMode         bool
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	ImageMaxDim     int
	ImageQuality    int
	ImageMaxPixels  int64
}

const envPrefix = "VR"

func defaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("dev_mode", false)
	v.SetDefault("max_body_bytes", 64<<20)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 2*time.Minute)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("image_max_dim", 2000)
	v.SetDefault("image_quality", 85)
	v.SetDefault("image_max_pixels", 50_000_000)
}

// Load reads configuration from a .env file in the working directory,
// the environment (VR_* variables) and, when path is not empty, a config
// file. Environment values win over the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env load warning", "error", err)
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Addr:            v.GetString("addr"),
		DevMode:         v.GetBool("dev_mode"),
		MaxBodyBytes:    v.GetInt64("max_body_bytes"),
		ReadTimeout:     v.GetDuration("read_timeout"),
		WriteTimeout:    v.GetDuration("write_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		AllowedOrigins:  allowedOrigins(v),
		ImageMaxDim:     v.GetInt("image_max_dim"),
		ImageQuality:    v.GetInt("image_quality"),
		ImageMaxPixels:  v.GetInt64("image_max_pixels"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// allowedOrigins accepts a comma-separated string from the environment or
// a list from the config file.
func allowedOrigins(v *viper.Viper) []string {
	if raw, ok := v.Get("allowed_origins").([]any); ok {
		var out []string
		for _, o := range raw {
			out = append(out, parseList(fmt.Sprint(o))...)
		}
		return out
	}
	return parseList(v.GetString("allowed_origins"))
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("VR_ADDR is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("VR_MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("VR_READ_TIMEOUT and VR_WRITE_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("VR_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.ImageMaxDim < 100 {
		return fmt.Errorf("VR_IMAGE_MAX_DIM must be at least 100, got %d", c.ImageMaxDim)
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return fmt.Errorf("VR_IMAGE_QUALITY must be between 1 and 100, got %d", c.ImageQuality)
	}
	if c.ImageMaxPixels <= 0 {
		return fmt.Errorf("VR_IMAGE_MAX_PIXELS must be positive, got %d", c.ImageMaxPixels)
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("allowed origin %q must be * or start with http:// or https://", o)
		}
	}
	return nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
