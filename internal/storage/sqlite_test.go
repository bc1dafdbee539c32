package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T, skips skipCounter) *SQLiteRecordStore {
	t.Helper()
	opts := Options{Cipher: testCipher(t)}
	if skips != nil {
		opts.OnSkip = skips.hook
	}
	s, err := NewSQLiteRecordStore(filepath.Join(t.TempDir(), "db", "ledger.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRecordStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, nil)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, sampleLedger()))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)

	require.NoError(t, s.Save(ctx, sampleLedger()[1:]))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger()[1:], got)
}

func TestSQLiteRecordStoreEncryptsAndSkipsBadRows(t *testing.T) {
	ctx := context.Background()
	skips := skipCounter{}
	s := newSQLiteStore(t, skips)
	require.NoError(t, s.Save(ctx, sampleLedger()))

	var payload string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT payload FROM ledger_records WHERE position = 0`).Scan(&payload))
	assert.NotContains(t, payload, "Grocery")

	_, err := s.db.ExecContext(ctx, `INSERT INTO ledger_records (position, payload) VALUES (10, 'tampered'), (11, ?)`,
		testCipher(t).Encrypt("x,y"))
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)
	assert.Equal(t, skipCounter{SkipDecrypt: 1, SkipMalformed: 1}, skips)
}

func TestSQLiteRecordStoreMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	opts := Options{Cipher: testCipher(t)}

	s1, err := NewSQLiteRecordStore(path, opts)
	require.NoError(t, err)
	require.NoError(t, s1.Save(context.Background(), sampleLedger()))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteRecordStore(path, opts)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
