package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/core"
)

func sampleLedger() []core.Transaction {
	return []core.Transaction{
		{Date: "13/01/2025", Description: "Grocery store", Amount: 54.2, Type: core.Expense, Category: core.CategoryFood},
		{Date: "14/01/2025", Description: "Salary", Amount: 2100, Type: core.Income, Category: core.CategoryOthers},
		{Date: "15/01/2025", Description: "Taxi, late night", Amount: 18.75, Type: core.Expense, Category: core.CategoryTransportation},
	}
}

func TestFileRecordStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger", "transactions.dat")
	store, err := NewFileRecordStore(path, Options{Cipher: testCipher(t)})
	require.NoError(t, err)

	want := sampleLedger()
	for i := 0; i < 50; i++ {
		want = append(want, core.Transaction{
			Date:        "1/2/2025",
			Description: gofakeit.Sentence(5),
			Amount:      gofakeit.Float64Range(-500, 500),
			Type:        core.Expense,
			Category:    core.Categories[i%len(core.Categories)],
		})
	}

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileRecordStoreEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.dat")
	store, err := NewFileRecordStore(path, Options{Cipher: testCipher(t)})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleLedger()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, secret := range []string{"Grocery", "Salary", "2100", "Food"} {
		assert.NotContains(t, string(raw), secret)
	}
	assert.Len(t, readFileLines(t, path), 3)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileRecordStoreSaveRewrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.dat")
	store, err := NewFileRecordStore(path, Options{Cipher: testCipher(t)})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleLedger()))
	require.NoError(t, store.Save(ctx, sampleLedger()[:1]))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger()[:1], got)

	require.NoError(t, store.Save(ctx, nil))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileRecordStoreSkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.dat")
	c := testCipher(t)
	skips := skipCounter{}
	store, err := NewFileRecordStore(path, Options{Cipher: c, OnSkip: skips.hook})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleLedger()))
	lines := readFileLines(t, path)

	corrupted := []string{
		lines[0],
		"not-a-valid-token",
		lines[1],
		c.Encrypt("wrong,field,count,here"),
		"",
		lines[2],
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(corrupted, "\n")+"\n"), 0o600))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)
	assert.Equal(t, skipCounter{SkipDecrypt: 1, SkipMalformed: 1}, skips)
}

func TestFileRecordStoreSkipsOversizedLine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.dat")
	skips := skipCounter{}
	store, err := NewFileRecordStore(path, Options{Cipher: testCipher(t), OnSkip: skips.hook})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleLedger()))
	lines := readFileLines(t, path)

	huge := strings.Repeat("x", 2<<20)
	content := strings.Join([]string{lines[0], huge, lines[1], lines[2]}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger(), got)
	assert.Equal(t, skipCounter{SkipMalformed: 1}, skips)

	// An oversized final line without a newline is dropped too.
	require.NoError(t, os.WriteFile(path, []byte(lines[0]+"\n"+huge), 0o600))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleLedger()[:1], got)
}

func TestFileRecordStoreLoadsLegacyLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.dat")
	c := testCipher(t)
	require.NoError(t, os.WriteFile(path, []byte(c.Encrypt("Movie night,12,Entertainment")+"\n"), 0o600))

	store, err := NewFileRecordStore(path, Options{Cipher: c})
	require.NoError(t, err)
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.CategoryEntertainment, got[0].Category)
	assert.Equal(t, core.Expense, got[0].Type)
	assert.Equal(t, 12.0, got[0].Amount)
}

func TestFileRecordStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileRecordStore(filepath.Join(t.TempDir(), "absent.dat"), Options{Cipher: testCipher(t)})
	require.NoError(t, err)
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileRecordStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store, err := NewFileRecordStore(filepath.Join(blocker, "transactions.dat"), Options{Cipher: testCipher(t)})
	require.NoError(t, err)
	assert.Error(t, store.Save(context.Background(), sampleLedger()))
}

func TestNewFileRecordStoreValidation(t *testing.T) {
	_, err := NewFileRecordStore("", Options{Cipher: testCipher(t)})
	assert.Error(t, err)
	_, err = NewFileRecordStore("x.dat", Options{})
	assert.Error(t, err)
}
