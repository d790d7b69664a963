package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultIdleMinutes is the idle poll interval used when none is configured.
const DefaultIdleMinutes = 5

// Default yt-dlp invocation values.
const (
	DefaultYtDlpBinary    = "yt-dlp"
	DefaultFFmpegLocation = "/app"
	DefaultFormat         = "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4] / bv*+ba/b"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Artifact backends.
const (
	BackendFilesystem = "filesystem"
	BackendAzureBlob  = "azblob"
)

// Config holds application configuration.
type Config struct {
	WorkDir         string         `toml:"work_dir"`
	IdlePollMinutes int            `toml:"idle_poll_minutes"`
	HTTP            HTTPConfig     `toml:"http"`
	Store           StoreConfig    `toml:"store"`
	Artifacts       ArtifactConfig `toml:"artifacts"`
	YtDlp           YtDlpConfig    `toml:"ytdlp"`
	Log             LogConfig      `toml:"log"`
}

// HTTPConfig configures the job submission server. Port 0 disables it.
type HTTPConfig struct {
	Port   int    `toml:"port"`
	Secret string `toml:"secret"`
}

// StoreConfig selects and configures the job store.
type StoreConfig struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresURL string `toml:"postgres_url"`
}

// ArtifactConfig selects and configures the artifact store.
type ArtifactConfig struct {
	Backend               string `toml:"backend"`
	Dir                   string `toml:"dir"`
	AzureConnectionString string `toml:"azure_connection_string"`
	AzureContainer        string `toml:"azure_container"`
}

// YtDlpConfig holds the download tool invocation.
type YtDlpConfig struct {
	Binary         string `toml:"binary"`
	FFmpegLocation string `toml:"ffmpeg_location"`
	Format         string `toml:"format"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// IdleInterval resolves the configured idle minutes to a duration.
// Zero or negative values fall back to DefaultIdleMinutes.
func IdleInterval(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = DefaultIdleMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// IdleInterval returns the resolved idle poll interval.
func (c *Config) IdleInterval() time.Duration {
	return IdleInterval(c.IdlePollMinutes)
}

// DefaultConfigPath returns the config file path under XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "grabber", "config.toml")
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "grabber", "jobs.db")
}

// DefaultArtifactDir returns the default directory for the filesystem backend.
func DefaultArtifactDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Videos")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		WorkDir: ".",
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: DefaultDBPath(),
		},
		Artifacts: ArtifactConfig{
			Backend: BackendFilesystem,
			Dir:     DefaultArtifactDir(),
		},
		YtDlp: YtDlpConfig{
			Binary:         DefaultYtDlpBinary,
			FFmpegLocation: DefaultFFmpegLocation,
			Format:         DefaultFormat,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load builds Config from defaults, an optional .env file, the TOML file at
// path and GRABBER_* environment overrides, in that order. An empty path
// means DefaultConfigPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	cfg.WorkDir = ExpandPath(cfg.WorkDir)
	cfg.Store.SQLitePath = ExpandPath(cfg.Store.SQLitePath)
	cfg.Artifacts.Dir = ExpandPath(cfg.Artifacts.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.WorkDir, "GRABBER_WORK_DIR")
	setInt(&cfg.IdlePollMinutes, "GRABBER_IDLE_POLL_MINUTES")
	setInt(&cfg.HTTP.Port, "GRABBER_PORT")
	setString(&cfg.HTTP.Secret, "GRABBER_WEBHOOK_SECRET")
	setString(&cfg.Store.Driver, "GRABBER_STORE_DRIVER")
	setString(&cfg.Store.SQLitePath, "GRABBER_DB")
	setString(&cfg.Store.PostgresURL, "GRABBER_DATABASE_URL")
	setString(&cfg.Artifacts.Backend, "GRABBER_ARTIFACT_BACKEND")
	setString(&cfg.Artifacts.Dir, "GRABBER_ARTIFACT_DIR")
	setString(&cfg.Artifacts.AzureConnectionString, "AZURE_STORAGE_CONNECTION_STRING")
	setString(&cfg.Artifacts.AzureContainer, "GRABBER_AZURE_CONTAINER")
	setString(&cfg.YtDlp.Binary, "GRABBER_YTDLP")
	setString(&cfg.YtDlp.FFmpegLocation, "GRABBER_FFMPEG_LOCATION")
	setString(&cfg.Log.Level, "GRABBER_LOG_LEVEL")
	setString(&cfg.Log.Format, "GRABBER_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks that the selected backends are known and configured.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return errors.New("work_dir is required")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("store.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}

	switch c.Artifacts.Backend {
	case BackendFilesystem:
		if c.Artifacts.Dir == "" {
			return errors.New("artifacts.dir is required for the filesystem backend")
		}
	case BackendAzureBlob:
		if c.Artifacts.AzureConnectionString == "" || c.Artifacts.AzureContainer == "" {
			return errors.New("artifacts.azure_connection_string and artifacts.azure_container are required for the azblob backend")
		}
	default:
		return fmt.Errorf("artifacts.backend: unsupported value %q", c.Artifacts.Backend)
	}

	if c.YtDlp.Binary == "" {
		return errors.New("ytdlp.binary is required")
	}
	return nil
}
