// Package config loads iarasync settings from flags, environment, .env files
// and an optional iarasync.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Source and Target are logical store names resolved by the provider.
	Source   string `mapstructure:"source" validate:"required"`
	Target   string `mapstructure:"target" validate:"required,nefield=Source"`
	Provider string `mapstructure:"provider" validate:"oneof=env ssm"`
	Dialect  string `mapstructure:"dialect" validate:"oneof=postgres mysql"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=auto json console"`

	DryRun    bool   `mapstructure:"dry_run"`
	GenderIDs string `mapstructure:"gender_ids" validate:"oneof=fixed enumeration"`
	Audit     bool   `mapstructure:"audit"`

	Pushgateway string `mapstructure:"pushgateway" validate:"omitempty,url"`

	Report ReportConfig `mapstructure:"report"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type ReportConfig struct {
	// XLSX is a local path for the run workbook.
	XLSX string `mapstructure:"xlsx"`

	// Bucket receives the workbook when set.
	Bucket string `mapstructure:"bucket"`
}

type NotifyConfig struct {
	SlackChannel string   `mapstructure:"slack_channel"`
	EmailFrom    string   `mapstructure:"email_from" validate:"omitempty,email"`
	EmailTo      []string `mapstructure:"email_to" validate:"omitempty,dive,email"`
}

var defaults = map[string]any{
	"source":               "",
	"target":               "",
	"provider":             "env",
	"dialect":              "postgres",
	"log_level":            "info",
	"log_format":           "auto",
	"dry_run":              false,
	"gender_ids":           "fixed",
	"audit":                false,
	"pushgateway":          "",
	"report.xlsx":          "",
	"report.bucket":        "",
	"notify.slack_channel": "",
	"notify.email_from":    "",
	"notify.email_to":      []string{},
}

// legacy env names kept from the first deployment
var envAliases = map[string][]string{
	"source":    {"IARA_SOURCE", "DB_NAME_FIRST"},
	"target":    {"IARA_TARGET", "DB_NAME_SECOND"},
	"dialect":   {"IARA_DIALECT", "DB_DIALECT"},
	"log_level": {"IARA_LOG_LEVEL", "LOG_LEVEL"},
}

// NewViper prepares a viper instance with defaults, env bindings and the
// config file. file may be empty to search for iarasync.yaml.
func NewViper(file string) (*viper.Viper, error) {
	loadEnvFiles()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("IARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName("iarasync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates the configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(file string) (*Config, error) {
	v, err := NewViper(file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make([]string, 0, len(ve))
			for _, fe := range ve {
				out = append(out, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(out, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Notify.EmailTo) > 0 && c.Notify.EmailFrom == "" {
		return errors.New("invalid config: notify.email_from is required with notify.email_to")
	}
	return nil
}

// loadEnvFiles loads .env then .env.local; missing files are fine.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
