package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureBufferRoundTrip(t *testing.T) {
	buf := NewSecureBuffer([]byte("hunter2"))
	defer buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Equal(t, "hunter2", locked.String())
}

func TestSecureBufferDestroyIsIdempotent(t *testing.T) {
	buf := NewSecureBuffer([]byte("secret"))
	buf.Destroy()
	buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Empty(t, locked.Bytes())
}

func TestVaultPutGetReveal(t *testing.T) {
	v := NewVault()
	defer v.DestroyAll()

	v.Put("arn:one", []byte("value-1"))
	v.Put("arn:two", []byte("value-2"))

	got, ok, err := v.Reveal("arn:one")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value-1", got)

	_, ok, err = v.Reveal("arn:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVaultPutReplacesExisting(t *testing.T) {
	v := NewVault()
	defer v.DestroyAll()

	v.Put("arn:one", []byte("old"))
	v.Put("arn:one", []byte("new"))

	got, ok, err := v.Reveal("arn:one")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestVaultDestroyAll(t *testing.T) {
	v := NewVault()
	v.Put("arn:one", []byte("value"))
	v.DestroyAll()

	assert.Nil(t, v.Get("arn:one"))
}
