package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/config"
	"budgetbook/internal/core"
)

func testConfig(t *testing.T, typ BackendType) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Type:            typ,
		LedgerFile:      filepath.Join(dir, "transactions.dat"),
		SQLiteDBPath:    filepath.Join(dir, "ledger.db"),
		CredentialsFile: filepath.Join(dir, "users.dat"),
		Passphrase:      "correct horse battery staple",
		Salt:            config.DefaultSalt,
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	txs := []core.Transaction{
		{Date: "13/01/2025", Description: "Grocery", Amount: 12.3, Type: core.Expense, Category: core.CategoryFood},
	}

	for _, typ := range GetBackendTypes() {
		t.Run(typ.String(), func(t *testing.T) {
			cfg := testConfig(t, typ)
			result, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer func() { require.NoError(t, result.Cleanup()) }()

			require.NoError(t, result.Records.Save(ctx, txs))
			got, err := result.Records.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, txs, got)

			require.NoError(t, result.Credentials.Register(ctx, "alice", "pw"))
			ok, err := result.Credentials.Authenticate(ctx, "alice", "pw")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCreateBackendSharesKeyAcrossInstances(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, FileBackend)
	txs := []core.Transaction{{Date: "1/1/2025", Description: "Bus", Amount: 2, Type: core.Expense, Category: core.CategoryTransportation}}

	first, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Records.Save(ctx, txs))

	second, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	got, err := second.Records.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, txs, got)

	cfg.Passphrase = "another passphrase"
	var skipped []string
	cfg.OnSkip = func(store, reason string) { skipped = append(skipped, store+"/"+reason) }
	third, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	got, err = third.Records.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "a different key reads nothing")
	assert.Equal(t, []string{"records/decrypt"}, skipped)
}

func TestCreateBackendInvalidConfig(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown type", func(c *Config) { c.Type = "sheets" }},
		{"missing ledger file", func(c *Config) { c.LedgerFile = "" }},
		{"missing credentials file", func(c *Config) { c.CredentialsFile = "" }},
		{"missing passphrase", func(c *Config) { c.Passphrase = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, FileBackend)
			tt.mutate(&cfg)
			_, err := NewFactory(nil).CreateBackend(ctx, cfg)
			assert.Error(t, err)
		})
	}

	cfg := testConfig(t, SQLiteBackend)
	cfg.SQLiteDBPath = ""
	_, err := NewFactory(nil).CreateBackend(ctx, cfg)
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := &config.Config{
		DataBackend:     "sqlite",
		LedgerFile:      "l.dat",
		SQLiteDBPath:    "l.db",
		CredentialsFile: "u.dat",
		Passphrase:      "pw",
		Salt:            config.DefaultSalt,
	}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "l.db", cfg.SQLiteDBPath)
	assert.Equal(t, "u.dat", cfg.CredentialsFile)

	app.DataBackend = "memory"
	_, err = FromAppConfig(app)
	assert.Error(t, err)
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"file", "sqlite"}, GetBackendTypeStrings())
	assert.ElementsMatch(t, config.ValidBackends, GetBackendTypeStrings())
}
