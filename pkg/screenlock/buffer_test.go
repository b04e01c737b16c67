package screenlock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBuffer_AppendStopsAtCapacity(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 50} {
		b := NewSecretBuffer(8)
		for range n {
			b.Append([]byte{'a'})
		}
		assert.Equal(t, min(n, 8), b.Len(), "n=%d", n)
		b.Destroy()
	}
}

func TestSecretBuffer_AppendIsAllOrNothing(t *testing.T) {
	b := NewSecretBuffer(4)
	defer b.Destroy()

	require.True(t, b.Append([]byte("abc")))
	assert.False(t, b.Append([]byte("é")))
	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Append([]byte("d")))
	assert.False(t, b.Append(nil))
}

func TestSecretBuffer_DeleteLast(t *testing.T) {
	b := NewSecretBuffer(16)
	defer b.Destroy()

	b.Append([]byte("aé"))
	require.Equal(t, 3, b.Len())

	assert.True(t, b.DeleteLast())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []byte{'a', 0, 0}, b.data[:3])

	assert.True(t, b.DeleteLast())
	assert.Equal(t, 0, b.Len())

	for range 3 {
		assert.False(t, b.DeleteLast())
		assert.Equal(t, 0, b.Len())
	}
}

func TestSecretBuffer_ConsumeZeroes(t *testing.T) {
	b := NewSecretBuffer(16)
	defer b.Destroy()

	b.Append([]byte("hunter2"))
	var seen string
	ok, err := b.Consume(func(secret []byte) (bool, error) {
		seen = string(secret)
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hunter2", seen)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, make([]byte, 16), b.data)

	b.Append([]byte("oops"))
	wantErr := errors.New("boom")
	_, err = b.Consume(func([]byte) (bool, error) { return false, wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, make([]byte, 16), b.data)
}

func TestSecretBuffer_ClearAndDestroy(t *testing.T) {
	b := NewSecretBuffer(0)
	assert.Equal(t, DefaultBufferCapacity, b.Cap())

	b.Append([]byte("secret"))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, make([]byte, DefaultBufferCapacity), b.data)

	b.Append([]byte("secret"))
	b.Destroy()
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.locked)
}
