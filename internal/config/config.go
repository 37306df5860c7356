package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/publish"
)

// EnvPrefix prefixes every environment variable read by the loader.
// The key "scan.concurrency" is read from HYGIENE_SCAN_CONCURRENCY.
const EnvPrefix = "HYGIENE"

// Output formats accepted by output.format.
const (
	FormatCSV   = "csv"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/aws-hygiene/config.yaml when present, then
// overridden by HYGIENE_* environment variables and bound CLI flags.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"  json:"log_level"`
	Scan      ScanConfig      `mapstructure:"scan"       json:"scan"`
	Output    OutputConfig    `mapstructure:"output"     json:"output"`
	Retention RetentionConfig `mapstructure:"retention"  json:"retention"`
}

// ScanConfig selects what the public EC2 scan covers.
type ScanConfig struct {
	// Profile is the named AWS profile to scan. Empty uses the default
	// credential chain.
	Profile string `mapstructure:"profile" json:"profile"`

	// AllProfiles scans every profile in the shared config files.
	AllProfiles bool `mapstructure:"all_profiles" json:"all_profiles"`

	// ProfileFilter restricts AllProfiles to names matching any glob.
	ProfileFilter []string `mapstructure:"profile_filter" json:"profile_filter"`

	// Regions limits the scan. Empty means every enabled region.
	Regions []string `mapstructure:"regions" json:"regions"`

	Concurrency int `mapstructure:"concurrency"  json:"concurrency"`
	MaxAttempts int `mapstructure:"max_attempts" json:"max_attempts"`
}

// OutputConfig controls where scan results go.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"    json:"dir"`
	Format string `mapstructure:"format" json:"format"`

	// S3URI, when set, receives a copy of the CSV report.
	S3URI string `mapstructure:"s3_uri" json:"s3_uri"`

	// MetricsNamespace, when set, enables the CloudWatch count metric.
	MetricsNamespace string `mapstructure:"metrics_namespace" json:"metrics_namespace"`
}

// RetentionConfig configures the retention compliance notifier.
type RetentionConfig struct {
	TopicARN      string `mapstructure:"topic_arn"      json:"topic_arn"`
	SubjectPrefix string `mapstructure:"subject_prefix" json:"subject_prefix"`
}

// Loader is the interface for reading Config.
type Loader interface {
	// Load reads, parses, and validates the configuration.
	Load() (*Config, error)

	// ConfigPath returns the path of the configuration file.
	ConfigPath() string
}

// ViperLoader reads Config through a private viper instance.
type ViperLoader struct {
	v        *viper.Viper
	path     string
	explicit bool
}

// DefaultPath returns ~/.config/aws-hygiene/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aws-hygiene", "config.yaml")
}

// NewLoader returns a loader for path. An empty path uses DefaultPath, and a
// missing default file is not an error; an explicit path must exist.
func NewLoader(path string) *ViperLoader {
	l := &ViperLoader{v: viper.New(), path: path, explicit: path != ""}
	if !l.explicit {
		l.path = DefaultPath()
	}

	setDefaults(l.v)
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// The notifier Lambda is deployed with the unprefixed names.
	_ = l.v.BindEnv("retention.topic_arn", EnvPrefix+"_RETENTION_TOPIC_ARN", "TOPIC_ARN")
	_ = l.v.BindEnv("retention.subject_prefix", EnvPrefix+"_RETENTION_SUBJECT_PREFIX", "SUBJECT_PREFIX")
	return l
}

// setDefaults registers every key. Keys without a default are invisible to
// AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("scan.profile", "")
	v.SetDefault("scan.all_profiles", false)
	v.SetDefault("scan.profile_filter", []string{})
	v.SetDefault("scan.regions", []string{})
	v.SetDefault("scan.concurrency", 5)
	v.SetDefault("scan.max_attempts", 10)

	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.format", FormatCSV)
	v.SetDefault("output.s3_uri", "")
	v.SetDefault("output.metrics_namespace", "")

	v.SetDefault("retention.topic_arn", "")
	v.SetDefault("retention.subject_prefix", "[CWL Retention]")
}

// BindFlag lets a CLI flag override key. Flags the user did not set leave the
// file, environment and default values in place.
func (l *ViperLoader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %q: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// LogLevel returns log_level as resolved from flags, environment and
// defaults, before the file is read. Callers use it to start logging before
// Load.
func (l *ViperLoader) LogLevel() string {
	return l.v.GetString("log_level")
}

// ConfigPath returns the configuration file path the loader reads.
func (l *ViperLoader) ConfigPath() string {
	return l.path
}

// Load reads the file (if any), applies overrides and validates the result.
func (l *ViperLoader) Load() (*Config, error) {
	if err := l.readFile(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, herrors.New(herrors.ErrConfigParse, "decode configuration",
			map[string]interface{}{"config_file": l.path}, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *ViperLoader) readFile() error {
	log := logger.For("config")
	if l.path == "" {
		return nil
	}
	if !l.explicit {
		if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
			log.Debug("No config file found, using environment and defaults",
				zap.String("operation", "config_loading"),
				zap.String("config_file", l.path),
			)
			return nil
		}
	}

	l.v.SetConfigFile(l.path)
	if err := l.v.ReadInConfig(); err != nil {
		return herrors.New(herrors.ErrConfigParse, "error reading config file",
			map[string]interface{}{"config_file": l.path}, err)
	}
	log.Debug("Config file loaded",
		zap.String("operation", "config_loading"),
		zap.String("config_file", l.path),
	)
	return nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if c.Scan.Concurrency < 1 {
		return invalid("scan.concurrency", "must be at least 1")
	}
	if c.Scan.MaxAttempts < 1 {
		return invalid("scan.max_attempts", "must be at least 1")
	}
	if c.Scan.Profile != "" && c.Scan.AllProfiles {
		return invalid("scan.profile", "cannot be combined with scan.all_profiles")
	}
	switch c.Output.Format {
	case FormatCSV, FormatTable, FormatJSON:
	default:
		return invalid("output.format", fmt.Sprintf("unknown format %q", c.Output.Format))
	}
	if c.Output.S3URI != "" {
		if _, _, err := publish.ParseS3URI(c.Output.S3URI); err != nil {
			return herrors.New(herrors.ErrConfigInvalid, "invalid output.s3_uri",
				map[string]interface{}{"config_key": "output.s3_uri"}, err)
		}
	}
	if _, err := common.CompileProfileFilters(c.Scan.ProfileFilter); err != nil {
		return herrors.New(herrors.ErrConfigInvalid, "invalid scan.profile_filter",
			map[string]interface{}{"config_key": "scan.profile_filter"}, err)
	}
	return nil
}

func invalid(key, msg string) error {
	return herrors.New(herrors.ErrConfigInvalid, "invalid "+key+": "+msg,
		map[string]interface{}{"config_key": key}, nil)
}
