package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensecart/internal/config"
)

func quietFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBackendType(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("mongo").IsValid())
	assert.Equal(t, []string{"remote", "memory", "sqlite", "sheets"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "nope"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:        "remote",
		ExpensesAPIURL:     "http://localhost:3000",
		ExpensesCollection: "jsonExpenses",
		RemoteTimeout:      time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, RemoteBackend, cfg.Type)
	assert.Equal(t, "jsonExpenses", cfg.ExpensesCollection)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"remote without url", Config{Type: RemoteBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend, GoogleSheetName: "Expenses"}, true},
		{"sheets without name", Config{Type: SheetsBackend, GoogleSpreadsheetID: "abc"}, true},
		{"unknown", Config{Type: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := quietFactory().CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)

	assert.Equal(t, MemoryBackend, res.Type)
	require.NoError(t, res.Ping(ctx))
	items, err := res.Repository.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
	assert.NoError(t, res.Cleanup())
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "expenses.db")

	res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	require.NoError(t, res.Ping(ctx))
	items, err := res.Repository.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateRemoteBackend(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{
		Type:           RemoteBackend,
		ExpensesAPIURL: "http://localhost:3000/",
		RemoteTimeout:  time.Second,
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Repository)

	_, err = quietFactory().CreateBackend(context.Background(), Config{
		Type:           RemoteBackend,
		ExpensesAPIURL: "not a url",
	})
	assert.Error(t, err)
}

func TestCreateSheetsBackendNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := quietFactory().CreateBackend(context.Background(), Config{
		Type:                SheetsBackend,
		GoogleSpreadsheetID: "abc",
		GoogleSheetName:     "Expenses",
	})
	assert.ErrorContains(t, err, "credentials")
}
