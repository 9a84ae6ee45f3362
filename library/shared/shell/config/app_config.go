package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Adapter type constants
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLXDB  = "sqlx.db"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

const (
	envDatabaseDSN     = "LIBRARY_DATABASE_DSN"
	envDatabaseAdapter = "LIBRARY_DATABASE_ADAPTER"
	envDailyLateFee    = "LIBRARY_DAILY_LATE_FEE"
	envLoanPeriodDays  = "LIBRARY_LOAN_PERIOD_DAYS"
	envMaxRenewals     = "LIBRARY_MAX_RENEWALS"
	envRenewalDays     = "LIBRARY_RENEWAL_DAYS"
	envLogLevel        = "LIBRARY_LOG_LEVEL"
	envLogFormat       = "LIBRARY_LOG_FORMAT"
	envOTelEndpoint    = "LIBRARY_OTEL_ENDPOINT"
	defaultEnvFile     = ".env"
	defaultServiceName = "librarian"
	hoursPerDay        = 24
)

var (
	ErrReadConfigFile      = errors.New("failed to read config file")
	ErrParseConfigFile     = errors.New("failed to parse config file")
	ErrLoadEnvFile         = errors.New("failed to load env file")
	ErrInvalidEnvValue     = errors.New("invalid environment variable value")
	ErrEmptyDSN            = errors.New("database dsn must not be empty")
	ErrInvalidAdapterType  = errors.New("unsupported database adapter type")
	ErrInvalidDailyLateFee = errors.New("daily late fee must be a non-negative decimal")
	ErrInvalidLoanPeriod   = errors.New("loan period days must be positive")
	ErrInvalidMaxRenewals  = errors.New("max renewals must not be negative")
	ErrInvalidRenewalDays  = errors.New("renewal days must be positive and fit a duration")
	ErrInvalidLogLevel     = errors.New("log level must be one of debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("log format must be json or console")
)

// Config is the complete application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Lending  LendingConfig  `yaml:"lending"`
	Log      LogConfig      `yaml:"log"`
	OTel     OTelConfig     `yaml:"otel"`
}

type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Adapter string `yaml:"adapter"`
}

// LendingConfig carries the circulation policy. DailyLateFee stays a string so it is parsed as an exact decimal.
type LendingConfig struct {
	DailyLateFee   string `yaml:"daily_late_fee"`
	LoanPeriodDays int    `yaml:"loan_period_days"`
	MaxRenewals    int    `yaml:"max_renewals"`
	RenewalDays    int    `yaml:"renewal_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OTelConfig enables OTLP export when Endpoint is set.
type OTelConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when neither a file nor environment variables override anything.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			DSN:     DefaultPostgresDSN(),
			Adapter: AdapterPGXPool,
		},
		Lending: LendingConfig{
			DailyLateFee:   lending.DefaultDailyLateFee,
			LoanPeriodDays: int(lending.DefaultLoanPeriod / (hoursPerDay * time.Hour)),
			MaxRenewals:    lending.DefaultMaxRenewalsAllowed,
			RenewalDays:    lending.DefaultRenewalDays,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
		OTel: OTelConfig{
			ServiceName: defaultServiceName,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path, the .env file
// and LIBRARY_* environment variables, in that order of precedence (later wins).
// A missing .env file is not an error; a missing YAML file is, when path is not empty.
func Load(path string) (Config, error) {
	return load(path, defaultEnvFile)
}

func load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadConfigFile, err)
		}

		if err = yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, errors.Join(ErrParseConfigFile, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrLoadEnvFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrideString(envDatabaseDSN, &c.Database.DSN)
	overrideString(envDatabaseAdapter, &c.Database.Adapter)
	overrideString(envDailyLateFee, &c.Lending.DailyLateFee)
	overrideString(envLogLevel, &c.Log.Level)
	overrideString(envLogFormat, &c.Log.Format)
	overrideString(envOTelEndpoint, &c.OTel.Endpoint)

	for name, target := range map[string]*int{
		envLoanPeriodDays: &c.Lending.LoanPeriodDays,
		envMaxRenewals:    &c.Lending.MaxRenewals,
		envRenewalDays:    &c.Lending.RenewalDays,
	} {
		if err := overrideInt(name, target); err != nil {
			return err
		}
	}

	return nil
}

func overrideString(name string, target *string) {
	if value, ok := os.LookupEnv(name); ok {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(name string, target *int) error {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return errors.Join(ErrInvalidEnvValue, fmt.Errorf("%s: %w", name, err))
	}

	*target = parsed

	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return ErrEmptyDSN
	}

	switch strings.ToLower(c.Database.Adapter) {
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLXDB:
	default:
		return errors.Join(ErrInvalidAdapterType, fmt.Errorf("adapter %q", c.Database.Adapter))
	}

	fee, err := decimal.NewFromString(c.Lending.DailyLateFee)
	if err != nil || fee.IsNegative() {
		return errors.Join(ErrInvalidDailyLateFee, fmt.Errorf("daily late fee %q", c.Lending.DailyLateFee))
	}

	switch {
	case c.Lending.LoanPeriodDays <= 0:
		return ErrInvalidLoanPeriod
	case c.Lending.MaxRenewals < 0:
		return ErrInvalidMaxRenewals
	case c.Lending.RenewalDays <= 0, c.Lending.RenewalDays > lending.MaxRenewalDays:
		return ErrInvalidRenewalDays
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(c.Log.Format) {
	case LogFormatJSON, LogFormatConsole:
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// Policy converts the lending settings into the policy the orchestrator applies.
func (c Config) Policy() (lending.Policy, error) {
	fee, err := decimal.NewFromString(c.Lending.DailyLateFee)
	if err != nil {
		return lending.Policy{}, errors.Join(ErrInvalidDailyLateFee, err)
	}

	policy := lending.Policy{
		LoanPeriod:         time.Duration(c.Lending.LoanPeriodDays) * hoursPerDay * time.Hour,
		RenewalDays:        c.Lending.RenewalDays,
		MaxRenewalsAllowed: c.Lending.MaxRenewals,
		DailyLateFee:       fee,
	}

	if err = policy.Validate(); err != nil {
		return lending.Policy{}, err
	}

	return policy, nil
}
