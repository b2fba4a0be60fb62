// Package config loads run configuration for the sarima command from yaml files and SARIMA_
// prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aouyang1/go-sarima-forecaster/sarima"
	"github.com/aouyang1/go-sarima-forecaster/timedataset"
	"github.com/spf13/viper"
)

const EnvPrefix = "SARIMA"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Data     DataConfig     `mapstructure:"data"`
	Train    TrainConfig    `mapstructure:"train"`
	HParams  map[string]any `mapstructure:"hparams"`
}

// DataConfig locates the consumption series
type DataConfig struct {
	Path        string `mapstructure:"path"`
	DateColumn  string `mapstructure:"date_column"`
	DateFormat  string `mapstructure:"date_format"`
	ValueColumn string `mapstructure:"value_column"`

	// TestSize is the number of trailing observations held out by evaluate
	TestSize int `mapstructure:"test_size"`
}

type TrainConfig struct {
	SaveDir string `mapstructure:"save_dir"`
	LogDir  string `mapstructure:"log_dir"`
	EvalDir string `mapstructure:"eval_dir"`
	Codec   string `mapstructure:"codec"`
}

// Load reads the config at configPath. Without a path config.yaml is looked up in the working
// directory and ./configs, and a missing file falls back to defaults and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("data.path", "")
	v.SetDefault("data.date_column", timedataset.ColumnDate)
	v.SetDefault("data.date_format", time.DateOnly)
	v.SetDefault("data.value_column", timedataset.ColumnConsumption)
	v.SetDefault("data.test_size", 12)

	v.SetDefault("train.save_dir", "models")
	v.SetDefault("train.log_dir", "")
	v.SetDefault("train.eval_dir", "evaluation")
	v.SetDefault("train.codec", sarima.CodecJSON)
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var errs []error

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, errors.New("log_level must be one of: debug, info, warn, error"))
	}
	if c.Data.DateColumn == "" {
		errs = append(errs, errors.New("data.date_column is required"))
	}
	if c.Data.ValueColumn == "" {
		errs = append(errs, errors.New("data.value_column is required"))
	}
	if c.Data.TestSize <= 0 {
		errs = append(errs, errors.New("data.test_size must be positive"))
	}
	if _, err := sarima.CodecByName(c.Train.Codec); err != nil {
		errs = append(errs, fmt.Errorf("train.codec must be one of: %s, %s", sarima.CodecJSON, sarima.CodecMsgpack))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return nil
}

// ModelHParams returns the hyperparameters keyed the way the model expects. Keys are upper cased
// since viper lower cases every key it reads.
func (c *Config) ModelHParams() map[string]any {
	hparams := make(map[string]any, len(c.HParams))
	for k, v := range c.HParams {
		hparams[strings.ToUpper(k)] = v
	}
	return hparams
}

// CSVOptions reads only the configured date and value columns
func (c *Config) CSVOptions() *timedataset.CSVOptions {
	opt := timedataset.NewDefaultCSVOptions()
	opt.DateColumn = c.Data.DateColumn
	opt.DateFormat = c.Data.DateFormat
	opt.ValueColumns = []string{c.Data.ValueColumn}
	return opt
}
