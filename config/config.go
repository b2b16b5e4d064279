/*
config.go - Layered configuration for the opsreport server and CLI

PURPOSE:
  One Config struct assembled from, in increasing priority:
    1. Built-in defaults (Default)
    2. opsreport.yaml found in ".", "$HOME/.config/opsreport", "/etc/opsreport"
       (or an explicit --config path)
    3. OPSREPORT_* environment variables (OPSREPORT_REMOTE_ENDPOINT, ...)

  The remote endpoint is the only setting that changes at runtime: Watch
  re-reads the file and hands the new Config to a callback, which swaps the
  remote client in the syncer.

SEE ALSO:
  - remote/client.go: Remote consumes RemoteConfig
  - blob/blob.go: Export.Archive is a blob.Config
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/warp/opsreport/blob"
	"github.com/warp/opsreport/remote"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OPSREPORT"

// FileName is the config file base name searched for in the config paths.
const FileName = "opsreport"

// Config is the full application configuration.
type Config struct {
	Server          ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage         StorageConfig `mapstructure:"storage" yaml:"storage"`
	Remote          RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Export          ExportConfig  `mapstructure:"export" yaml:"export"`
	Log             LogConfig     `mapstructure:"log" yaml:"log"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	// Path of the SQLite database. ":memory:" keeps everything in RAM.
	Path string `mapstructure:"path" yaml:"path"`
}

type RemoteConfig struct {
	Endpoint  string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	WriteMode string        `mapstructure:"write_mode" yaml:"write_mode"`
}

// Client converts to the remote package's config.
func (r RemoteConfig) Client() remote.Config {
	return remote.Config{
		Endpoint:  strings.TrimSpace(r.Endpoint),
		Timeout:   r.Timeout,
		WriteMode: remote.WriteMode(r.WriteMode),
	}
}

type ExportConfig struct {
	Archive blob.Config `mapstructure:"archive" yaml:"archive"`
	// OpenCommand opens printable documents. Empty uses the platform default
	// (xdg-open, open). "none" disables the print surface.
	OpenCommand string `mapstructure:"open_command" yaml:"open_command"`
}

type LogConfig struct {
	// File enables rotating file output in addition to stderr.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Storage: StorageConfig{Path: "opsreport.db"},
		Remote: RemoteConfig{
			Timeout:   remote.DefaultTimeout,
			WriteMode: string(remote.WriteModeConfirm),
		},
		Export: ExportConfig{
			Archive: blob.Config{Driver: blob.DriverFilesystem, Dir: "./exports"},
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		RefreshInterval: 5 * time.Minute,
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	switch remote.WriteMode(c.Remote.WriteMode) {
	case "", remote.WriteModeConfirm, remote.WriteModeDispatch:
	default:
		errs = append(errs, fmt.Errorf("remote.write_mode must be confirm or dispatch, got %q", c.Remote.WriteMode))
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, errors.New("remote.timeout must not be negative"))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, errors.New("refresh_interval must not be negative"))
	}
	return errors.Join(errs...)
}

// =============================================================================
// LOADING
// =============================================================================

// Loader wraps a viper instance so Watch can re-read the same sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. An empty path searches the default paths.
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "opsreport"))
		}
		v.AddConfigPath("/etc/opsreport")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads the config file (if any) and returns the merged Config.
// A missing file is not an error; defaults and env still apply.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return l.decode()
}

// Load is a shortcut for NewLoader(path).Load().
func Load(path string) (Config, error) {
	return NewLoader(path).Load()
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the re-read Config whenever the file changes.
// Invalid edits are reported through onError and otherwise ignored.
func (l *Loader) Watch(onChange func(Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every leaf key so env overrides work for keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("remote.endpoint", d.Remote.Endpoint)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.write_mode", d.Remote.WriteMode)
	v.SetDefault("export.archive.driver", string(d.Export.Archive.Driver))
	v.SetDefault("export.archive.dir", d.Export.Archive.Dir)
	v.SetDefault("export.archive.s3.bucket", d.Export.Archive.S3.Bucket)
	v.SetDefault("export.archive.s3.region", d.Export.Archive.S3.Region)
	v.SetDefault("export.archive.s3.endpoint", d.Export.Archive.S3.Endpoint)
	v.SetDefault("export.archive.s3.prefix", d.Export.Archive.S3.Prefix)
	v.SetDefault("export.archive.s3.path_style", d.Export.Archive.S3.PathStyle)
	v.SetDefault("export.open_command", d.Export.OpenCommand)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("refresh_interval", d.RefreshInterval)
}

// =============================================================================
// WRITING
// =============================================================================

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(yamlConfig(cfg))
}

// Save writes cfg to path, creating parent directories. Existing files are
// left alone unless overwrite is set.
func Save(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// yamlDoc mirrors Config with durations as strings ("10s"), which is
// what viper parses back.
type yamlDoc struct {
	Server          ServerConfig  `yaml:"server"`
	Storage         StorageConfig `yaml:"storage"`
	Remote          yamlRemote    `yaml:"remote"`
	Export          ExportConfig  `yaml:"export"`
	Log             LogConfig     `yaml:"log"`
	RefreshInterval string        `yaml:"refresh_interval"`
}

type yamlRemote struct {
	Endpoint  string `yaml:"endpoint"`
	Timeout   string `yaml:"timeout"`
	WriteMode string `yaml:"write_mode"`
}

func yamlConfig(cfg Config) yamlDoc {
	return yamlDoc{
		Server:  cfg.Server,
		Storage: cfg.Storage,
		Remote: yamlRemote{
			Endpoint:  cfg.Remote.Endpoint,
			Timeout:   cfg.Remote.Timeout.String(),
			WriteMode: cfg.Remote.WriteMode,
		},
		Export:          cfg.Export,
		Log:             cfg.Log,
		RefreshInterval: cfg.RefreshInterval.String(),
	}
}
