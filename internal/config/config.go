package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"library-loans-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Loan      LoanConfig      `yaml:"loan"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	GRPCPort            int    `yaml:"grpc_port"`
	RoutePrefix         string `yaml:"route_prefix"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DatabaseConfig contains MySQL or PostgreSQL connection settings
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "mysql", "postgres" or "pgx"
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Database               string `yaml:"database"`
	SSLMode                string `yaml:"ssl_mode"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `yaml:"auto_migrate"`
}

// LoanConfig contains the borrowing rules
type LoanConfig struct {
	PeriodDays     int    `yaml:"period_days"`
	LateFine       string `yaml:"late_fine"`
	Timezone       string `yaml:"timezone"`
	TrackInventory bool   `yaml:"track_inventory"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Enabled                   bool   `yaml:"enabled"`
	ReportOverdueTransactions string `yaml:"report_overdue_transactions"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Loan
	if val := os.Getenv("LOAN_PERIOD_DAYS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Loan.PeriodDays)
	}
	if val := os.Getenv("LATE_FINE"); val != "" {
		c.Loan.LateFine = val
	}
	if val := os.Getenv("LOAN_TIMEZONE"); val != "" {
		c.Loan.Timezone = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.Server.RoutePrefix == "" {
		c.Server.RoutePrefix = "/api/transaction"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Port == 0 {
		if c.Database.Driver == "mysql" {
			c.Database.Port = 3306
		} else {
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes == 0 {
		c.Database.ConnMaxLifetimeMinutes = 5
	}

	if c.Loan.PeriodDays == 0 {
		c.Loan.PeriodDays = domain.DefaultLoanPeriodDays
	}
	if c.Loan.LateFine == "" {
		c.Loan.LateFine = fmt.Sprintf("%d", domain.DefaultLateFine)
	}
	if c.Loan.Timezone == "" {
		c.Loan.Timezone = "UTC"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Scheduler.ReportOverdueTransactions == "" {
		c.Scheduler.ReportOverdueTransactions = "0 0 6 * * *" // 6 AM UTC
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}

	// Database validation
	switch c.Database.Driver {
	case "mysql", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Loan validation
	if c.Loan.PeriodDays <= 0 {
		return fmt.Errorf("loan period must be positive: %d", c.Loan.PeriodDays)
	}
	fine, err := decimal.NewFromString(c.Loan.LateFine)
	if err != nil {
		return fmt.Errorf("invalid late fine %q: %w", c.Loan.LateFine, err)
	}
	if fine.IsNegative() {
		return fmt.Errorf("late fine must not be negative: %s", fine)
	}
	if _, err := time.LoadLocation(c.Loan.Timezone); err != nil {
		return fmt.Errorf("invalid loan timezone %q: %w", c.Loan.Timezone, err)
	}

	return nil
}

// LoanPolicy builds the domain policy. Validate must have passed.
func (c *Config) LoanPolicy() (domain.LoanPolicy, error) {
	fine, err := decimal.NewFromString(c.Loan.LateFine)
	if err != nil {
		return domain.LoanPolicy{}, fmt.Errorf("invalid late fine: %w", err)
	}
	loc, err := time.LoadLocation(c.Loan.Timezone)
	if err != nil {
		return domain.LoanPolicy{}, fmt.Errorf("invalid loan timezone: %w", err)
	}
	return domain.LoanPolicy{PeriodDays: c.Loan.PeriodDays, LateFine: fine, Location: loc}, nil
}

// GetDatabaseConnectionString returns the DSN for the configured driver
func (c *Config) GetDatabaseConnectionString() string {
	db := c.Database
	if db.Driver == "mysql" {
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", db.Host, db.Port)
		mc.DBName = db.Database
		mc.ParseTime = true
		mc.ClientFoundRows = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Database,
		RawQuery: url.Values{"sslmode": []string{db.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnMaxLifetime returns the pool connection lifetime
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.Database.ConnMaxLifetimeMinutes) * time.Minute
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
