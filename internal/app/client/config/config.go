package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"clinicsync/internal/domain/sync"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultEnv           = EnvLocal
	defaultLogLevel      = "info"
	defaultDataDir       = ".clinicsync"
	defaultListenAddress = "127.0.0.1:8765"
	defaultConfigName    = "companion"
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	DataDir       string `mapstructure:"data_dir"`
	DBPath        string `mapstructure:"db_path"`
	SecretPath    string `mapstructure:"secret_path"`
	ListenAddress string `mapstructure:"listen_address"`

	// Начальные учетные данные. Сохраненные через UI значения хранятся в локальной базе.
	ServerURL  string `mapstructure:"server_url"`
	APIKey     string `mapstructure:"api_key"`
	BranchID   int64  `mapstructure:"branch_id"`
	BranchName string `mapstructure:"branch_name"`

	Sync SyncConfig `mapstructure:",squash"`

	// ConfigFile файл, из которого прочитана конфигурация (пусто, если его нет)
	ConfigFile string `mapstructure:"-"`

	v *viper.Viper
}

// SyncConfig параметры движка синхронизации
type SyncConfig struct {
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	RetryCount       int           `mapstructure:"retry_count"`
	RetryWait        time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait     time.Duration `mapstructure:"retry_max_wait"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	OnlineThreshold  int           `mapstructure:"online_threshold"`
	OfflineThreshold int           `mapstructure:"offline_threshold"`
	PushParallelism  int           `mapstructure:"push_parallelism"`
	BatchSize        int           `mapstructure:"batch_size"`
	SyncInterval     time.Duration `mapstructure:"sync_interval"`
	AutoSyncOnWrite  bool          `mapstructure:"auto_sync_on_write"`
}

// DefaultSync значения по умолчанию для движка синхронизации
func DefaultSync() SyncConfig {
	return SyncConfig{
		RequestTimeout:   10 * time.Second,
		RetryCount:       2,
		RetryWait:        500 * time.Millisecond,
		RetryMaxWait:     5 * time.Second,
		ProbeInterval:    15 * time.Second,
		OnlineThreshold:  2,
		OfflineThreshold: 2,
		PushParallelism:  1,
		BatchSize:        50,
		SyncInterval:     5 * time.Minute,
		AutoSyncOnWrite:  true,
	}
}

// Credentials начальные учетные данные из конфигурации
func (c *Config) Credentials() sync.Credentials {
	return sync.Credentials{
		ServerURL:  c.ServerURL,
		APIKey:     c.APIKey,
		BranchID:   c.BranchID,
		BranchName: c.BranchName,
	}
}

// Load загружает конфигурацию компаньона: .env, переменные окружения и
// необязательный YAML-файл (явный путь или companion.yaml в каталоге данных)
func Load(configFile string) (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	defaults := DefaultSync()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("listen_address", defaultListenAddress)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("retry_count", defaults.RetryCount)
	v.SetDefault("retry_wait", defaults.RetryWait)
	v.SetDefault("retry_max_wait", defaults.RetryMaxWait)
	v.SetDefault("probe_interval", defaults.ProbeInterval)
	v.SetDefault("online_threshold", defaults.OnlineThreshold)
	v.SetDefault("offline_threshold", defaults.OfflineThreshold)
	v.SetDefault("push_parallelism", defaults.PushParallelism)
	v.SetDefault("batch_size", defaults.BatchSize)
	v.SetDefault("sync_interval", defaults.SyncInterval)
	v.SetDefault("auto_sync_on_write", defaults.AutoSyncOnWrite)
	// ключи без значения по умолчанию должны быть известны viper, чтобы читаться из окружения
	for _, key := range []string{"log_file", "db_path", "secret_path", "server_url", "api_key", "branch_id", "branch_name"} {
		v.SetDefault(key, "")
	}

	dataDir := v.GetString("data_dir")
	if dataDir == defaultDataDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		dataDir = filepath.Join(homeDir, defaultDataDir)
	}

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	cfg := &Config{v: v, ConfigFile: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	cfg.DataDir = dataDir
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "clinic.db")
	}
	if cfg.SecretPath == "" {
		cfg.SecretPath = filepath.Join(cfg.DataDir, "secret.key")
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

// MustLoad загружает конфигурацию или завершает процесс
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address не может быть пустым")
	}
	if c.Sync.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout должен быть положительным")
	}
	if c.Sync.RetryCount < 0 {
		return fmt.Errorf("retry_count не может быть отрицательным")
	}
	if c.Sync.OnlineThreshold < 1 || c.Sync.OfflineThreshold < 1 {
		return fmt.Errorf("пороги online_threshold/offline_threshold должны быть не меньше 1")
	}
	if c.Sync.PushParallelism < 1 {
		return fmt.Errorf("push_parallelism должен быть не меньше 1")
	}
	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("batch_size должен быть не меньше 1")
	}
	return nil
}

// Watch следит за файлом конфигурации и передает новые учетные данные в onChange.
// Возвращает false, если конфигурация прочитана не из файла.
func (c *Config) Watch(onChange func(sync.Credentials)) bool {
	if c.v == nil || c.ConfigFile == "" {
		return false
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(sync.Credentials{
			ServerURL:  c.v.GetString("server_url"),
			APIKey:     c.v.GetString("api_key"),
			BranchID:   c.v.GetInt64("branch_id"),
			BranchName: c.v.GetString("branch_name"),
		})
	})
	c.v.WatchConfig()
	return true
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}
