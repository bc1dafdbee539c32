package storage

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"budgetbook/internal/cipher"
)

func testCipher(t *testing.T) cipher.Cipher {
	t.Helper()
	c, err := cipher.NewSealerWithKey(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	return c
}

type skipCounter map[string]int

func (s skipCounter) hook(reason string) { s[reason]++ }

func readFileLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
