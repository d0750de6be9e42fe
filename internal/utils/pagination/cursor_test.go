package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EncodeDecode(t *testing.T) {
	token, err := Encode(Cursor{MovieID: 550, UpdatedUnix: 1700000000000})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(550), c.MovieID)
	assert.Equal(t, int64(1700000000000), c.UpdatedUnix)
}

func TestCursor_EmptyTokenIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, c)
}

func TestCursor_GarbageToken(t *testing.T) {
	_, err := Decode("not base64 !!")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Decode("bm90IGpzb24=") // "not json"
	assert.ErrorIs(t, err, ErrInvalidToken)
}
