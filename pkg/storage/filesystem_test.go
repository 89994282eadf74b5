package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("payments/1_receipt.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	f, err := store.Open("payments/1_receipt.png")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete("payments/1_receipt.png"))
	require.NoError(t, store.Delete("payments/1_receipt.png"))
	_, err = store.Open("payments/1_receipt.png")
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../secret", "/etc/passwd", "payments/../../x", ""} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "receipt_May.png", SanitizeFilename("receipt May.png"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "scan.pdf", SanitizeFilename(`C:\Users\me\scan.pdf`))
	assert.Equal(t, "upload", SanitizeFilename("..."))
}
