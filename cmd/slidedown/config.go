package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pwnholic/slidedown/internal/clients"
	"github.com/pwnholic/slidedown/internal/exports"
)

type Config struct {
	Output        string                `mapstructure:"output"`
	Force         bool                  `mapstructure:"force"`
	From          int                   `mapstructure:"from"`
	To            int                   `mapstructure:"to"`
	NoCrop        bool                  `mapstructure:"no_crop"`
	CropTolerance int                   `mapstructure:"crop_tolerance"`
	UserAgent     string                `mapstructure:"user_agent"`
	Timeout       time.Duration         `mapstructure:"timeout"`
	ImageTimeout  time.Duration         `mapstructure:"image_timeout"`
	Retry         int                   `mapstructure:"retry"`
	DPI           float64               `mapstructure:"dpi"`
	TempDir       string                `mapstructure:"temp_dir"`
	LogLevel      string                `mapstructure:"log_level"`
	LogFile       string                `mapstructure:"log_file"`
	Quiet         bool                  `mapstructure:"quiet"`
	Site          clients.ScraperConfig `mapstructure:"site"`
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"output":         "output",
	"force":          "force",
	"from":           "from",
	"to":             "to",
	"no-crop":        "no_crop",
	"crop-tolerance": "crop_tolerance",
	"user-agent":     "user_agent",
	"timeout":        "timeout",
	"image-timeout":  "image_timeout",
	"retry":          "retry",
	"dpi":            "dpi",
	"temp-dir":       "temp_dir",
	"log-level":      "log_level",
	"log-file":       "log_file",
	"quiet":          "quiet",
}

func setDefaults(v *viper.Viper) {
	httpOpts := clients.DefaultHTTPClientOptions()
	site := clients.DefaultScraperConfig()
	crop := exports.DefaultCropOptions()

	v.SetDefault("output", ".")
	v.SetDefault("force", false)
	v.SetDefault("from", 0)
	v.SetDefault("to", 0)
	v.SetDefault("no_crop", false)
	v.SetDefault("crop_tolerance", int(crop.Tolerance))
	v.SetDefault("user_agent", httpOpts.UserAgent)
	v.SetDefault("timeout", httpOpts.PageTimeout)
	v.SetDefault("image_timeout", httpOpts.ImageTimeout)
	v.SetDefault("retry", httpOpts.RetryCount)
	v.SetDefault("dpi", exports.DefaultPDFOptions().DPI)
	v.SetDefault("temp_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("quiet", false)
	v.SetDefault("site.hostname", site.Hostname)
	v.SetDefault("site.mobile_prefix", site.MobilePrefix)
	v.SetDefault("site.title_selector", site.TitleSelector)
	v.SetDefault("site.image_selector", site.ImageSelector)
	v.SetDefault("site.attr_image", site.AttrImage)
}

// loadConfig layers defaults, the config file, SLIDEDOWN_* environment
// variables and explicitly set flags, in increasing precedence.
func loadConfig(fs *flag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("slidedown")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "slidedown"))
		}
	}

	v.SetEnvPrefix("SLIDEDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.From < 0 || c.To < 0 {
		return errors.New("--from and --to must be >= 0")
	}
	if c.From > 0 && c.To > 0 && c.From > c.To {
		return errors.New("--from must be <= --to")
	}
	if c.CropTolerance < 0 || c.CropTolerance > 255 {
		return errors.New("crop tolerance must be between 0 and 255")
	}
	if c.Timeout <= 0 || c.ImageTimeout <= 0 {
		return errors.New("timeouts must be greater than 0")
	}
	if c.Retry < 0 {
		return errors.New("retry count must be >= 0")
	}
	if c.DPI <= 0 {
		return errors.New("dpi must be greater than 0")
	}
	if c.Output == "" {
		return errors.New("output directory cannot be empty")
	}
	return c.Site.Validate()
}

func (c *Config) HTTPClientOptions() *clients.HTTPClientOptions {
	opts := clients.DefaultHTTPClientOptions()
	opts.RetryCount = c.Retry
	opts.PageTimeout = c.Timeout
	opts.ImageTimeout = c.ImageTimeout
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return &opts
}

func (c *Config) PDFOptions() exports.PDFOptions {
	opts := exports.DefaultPDFOptions()
	opts.DPI = c.DPI
	return opts
}

func (c *Config) CropOptions() exports.CropOptions {
	opts := exports.DefaultCropOptions()
	opts.Tolerance = uint8(c.CropTolerance)
	return opts
}
