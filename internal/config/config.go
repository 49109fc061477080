package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Reports  ReportsConfig  `yaml:"reports"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Env         string `yaml:"env"`
	College     string `yaml:"college"`
	CollegeCity string `yaml:"college_city"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path          string        `yaml:"path"`
	BusyTimeout   time.Duration `yaml:"busy_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	TTL      time.Duration `yaml:"ttl"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"` // "local" or "s3"
	LocalDir string `yaml:"local_dir"`
	// BackupDir is the key prefix database backups are archived under,
	// relative to the archive root (LocalDir or the bucket).
	BackupDir string   `yaml:"backup_dir"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// SMTPConfig replaces the settings table the desktop build kept in the
// database. It is handed to the mailer as a value, never read back from
// the store. ThresholdPercentage is carried for the settings form but the
// status tiers are fixed at 75/60 and do not consult it.
type SMTPConfig struct {
	Host                string  `yaml:"host"`
	Port                int     `yaml:"port"`
	SenderEmail         string  `yaml:"sender_email"`
	SenderAppPassword   string  `yaml:"sender_app_password"`
	HODEmail            string  `yaml:"hod_email"`
	ThresholdPercentage float64 `yaml:"threshold_percentage"`
}

func (s SMTPConfig) Configured() bool {
	return s.SenderEmail != "" && s.SenderAppPassword != ""
}

type ReportsConfig struct {
	Dir          string        `yaml:"dir"`
	LogoURL      string        `yaml:"logo_url"`
	GovtLogoURL  string        `yaml:"govt_logo_url"`
	LogoCacheDir string        `yaml:"logo_cache_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join("student_records", "students.db")
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = 30 * time.Second
	}
	if c.Database.RetryAttempts == 0 {
		c.Database.RetryAttempts = 3
	}
	if c.Database.RetryDelay == 0 {
		c.Database.RetryDelay = 500 * time.Millisecond
	}
	if c.Reports.Dir == "" {
		c.Reports.Dir = filepath.Join("student_records", "report_cards_pdf")
	}
	if c.Storage.BackupDir == "" {
		c.Storage.BackupDir = "backups"
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.ThresholdPercentage == 0 {
		c.SMTP.ThresholdPercentage = 75.0
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
}

// SQLite DSN; WAL and the busy timeout absorb most single-writer contention,
// foreign keys stay on for the delete-cascade behaviour.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		c.Database.Path, c.Database.BusyTimeout.Milliseconds())
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTP.Host, c.SMTP.Port)
}
