package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbook/internal/cipher"
	"budgetbook/internal/log"
	"budgetbook/internal/storage"
)

// Store labels passed to Config.OnSkip.
const (
	StoreRecords     = "records"
	StoreCredentials = "credentials"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend derives the cipher key and opens the record and credential
// stores for config.Type.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sealer, err := cipher.NewSealer(config.Passphrase, config.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	credentials, err := storage.NewCredentialStore(config.CredentialsFile, f.options(sealer, config, StoreCredentials))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config, sealer, credentials)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config, sealer, credentials)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) options(c cipher.Cipher, config Config, store string) storage.Options {
	opts := storage.Options{
		Cipher: c,
		Logger: f.logger.With(log.FieldComponent, log.ComponentStorage, "store", store),
	}
	if config.OnSkip != nil {
		opts.OnSkip = func(reason string) { config.OnSkip(store, reason) }
	}
	return opts
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config, c cipher.Cipher, credentials *storage.CredentialStore) (*BackendResult, error) {
	records, err := storage.NewFileRecordStore(config.LedgerFile, f.options(c, config, StoreRecords))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record file: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend",
		log.FieldFile, config.LedgerFile,
		"credentials_file", config.CredentialsFile)

	return &BackendResult{
		Records:     records,
		Credentials: credentials,
		Cleanup:     func() error { return nil },
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, c cipher.Cipher, credentials *storage.CredentialStore) (*BackendResult, error) {
	records, err := storage.NewSQLiteRecordStore(config.SQLiteDBPath, f.options(c, config, StoreRecords))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite record store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"credentials_file", config.CredentialsFile)

	return &BackendResult{
		Records:     records,
		Credentials: credentials,
		Cleanup:     records.Close,
	}, nil
}
