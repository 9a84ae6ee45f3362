package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_ReturnsDefaults_WithoutFileOrEnvironment(t *testing.T) {
	// arrange
	clearLibraryEnv(t)

	// act
	cfg, err := load("", "")

	// assert
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, AdapterPGXPool, cfg.Database.Adapter)
	assert.Equal(t, "0.25", cfg.Lending.DailyLateFee)
	assert.Equal(t, 14, cfg.Lending.LoanPeriodDays)
	assert.Equal(t, 2, cfg.Lending.MaxRenewals)
}

func Test_Load_YAMLFileOverridesDefaults(t *testing.T) {
	// arrange
	clearLibraryEnv(t)
	path := writeFile(t, "config.yaml", `
database:
  adapter: sqlx.db
lending:
  daily_late_fee: "0.50"
  loan_period_days: 21
log:
  format: console
`)

	// act
	cfg, err := load(path, "")

	// assert
	require.NoError(t, err)
	assert.Equal(t, AdapterSQLXDB, cfg.Database.Adapter)
	assert.Equal(t, "0.50", cfg.Lending.DailyLateFee)
	assert.Equal(t, 21, cfg.Lending.LoanPeriodDays)
	assert.Equal(t, 2, cfg.Lending.MaxRenewals, "unset keys keep their default")
	assert.Equal(t, LogFormatConsole, cfg.Log.Format)
	assert.Equal(t, DefaultPostgresDSN(), cfg.Database.DSN)
}

func Test_Load_EnvironmentOverridesYAMLFile(t *testing.T) {
	// arrange
	clearLibraryEnv(t)
	path := writeFile(t, "config.yaml", "lending:\n  max_renewals: 5\n")
	t.Setenv(envMaxRenewals, "1")
	t.Setenv(envDatabaseDSN, "postgres://other:other@db:5432/library")

	// act
	cfg, err := load(path, "")

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Lending.MaxRenewals)
	assert.Equal(t, "postgres://other:other@db:5432/library", cfg.Database.DSN)
}

func Test_Load_ReadsEnvFile_WithoutOverridingSetVariables(t *testing.T) {
	// arrange
	clearLibraryEnv(t)
	envFile := writeFile(t, ".env", "LIBRARY_RENEWAL_DAYS=7\nLIBRARY_LOG_LEVEL=debug\n")
	t.Setenv(envLogLevel, "warn")
	t.Cleanup(func() { _ = os.Unsetenv(envRenewalDays) })

	// act
	cfg, err := load("", envFile)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Lending.RenewalDays)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func Test_Load_IgnoresMissingEnvFile(t *testing.T) {
	// arrange
	clearLibraryEnv(t)

	// act
	_, err := load("", filepath.Join(t.TempDir(), "missing.env"))

	// assert
	assert.NoError(t, err)
}

func Test_Load_Fails(t *testing.T) {
	testCases := []struct {
		name        string
		env         map[string]string
		expectedErr error
	}{
		{name: "unknown adapter", env: map[string]string{envDatabaseAdapter: "mysql"}, expectedErr: ErrInvalidAdapterType},
		{name: "malformed fee", env: map[string]string{envDailyLateFee: "abc"}, expectedErr: ErrInvalidDailyLateFee},
		{name: "negative fee", env: map[string]string{envDailyLateFee: "-1"}, expectedErr: ErrInvalidDailyLateFee},
		{name: "zero loan period", env: map[string]string{envLoanPeriodDays: "0"}, expectedErr: ErrInvalidLoanPeriod},
		{name: "non-numeric renewals", env: map[string]string{envMaxRenewals: "two"}, expectedErr: ErrInvalidEnvValue},
		{name: "negative renewals", env: map[string]string{envMaxRenewals: "-1"}, expectedErr: ErrInvalidMaxRenewals},
		{name: "zero renewal days", env: map[string]string{envRenewalDays: "0"}, expectedErr: ErrInvalidRenewalDays},
		{name: "renewal days beyond a duration", env: map[string]string{envRenewalDays: "213504"}, expectedErr: ErrInvalidRenewalDays},
		{name: "empty dsn", env: map[string]string{envDatabaseDSN: ""}, expectedErr: ErrEmptyDSN},
		{name: "unknown log level", env: map[string]string{envLogLevel: "trace"}, expectedErr: ErrInvalidLogLevel},
		{name: "unknown log format", env: map[string]string{envLogFormat: "xml"}, expectedErr: ErrInvalidLogFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			clearLibraryEnv(t)
			for name, value := range tc.env {
				t.Setenv(name, value)
			}

			// act
			_, err := load("", "")

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Load_Fails_WithMissingOrMalformedFile(t *testing.T) {
	clearLibraryEnv(t)

	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.ErrorIs(t, err, ErrReadConfigFile)

	_, err = load(writeFile(t, "bad.yaml", "database: [unclosed"), "")
	assert.ErrorIs(t, err, ErrParseConfigFile)
}

func Test_Config_Policy(t *testing.T) {
	// arrange
	cfg := Default()
	cfg.Lending.DailyLateFee = "1.10"
	cfg.Lending.LoanPeriodDays = 7

	// act
	policy, err := cfg.Policy()

	// assert
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, policy.LoanPeriod)
	assert.True(t, decimal.RequireFromString("1.1").Equal(policy.DailyLateFee))
	assert.Equal(t, 2, policy.MaxRenewalsAllowed)
	assert.Equal(t, 14, policy.RenewalDays)
}

func clearLibraryEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		envDatabaseDSN, envDatabaseAdapter, envDailyLateFee, envLoanPeriodDays, envMaxRenewals,
		envRenewalDays, envLogLevel, envLogFormat, envOTelEndpoint,
	} {
		if value, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, value) })
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
