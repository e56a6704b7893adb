package tftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBlksize(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr error
	}{
		{"below minimum", 7, ErrBlockSizeRange},
		{"minimum", 8, nil},
		{"default", 512, nil},
		{"maximum", 65464, nil},
		{"above maximum", 65465, ErrBlockSizeRange},
		{"negative", -1, ErrBlockSizeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts Options
			err := opts.SetBlksize(tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, opts.Blksize)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, opts.Blksize)
			assert.Equal(t, tt.value, *opts.Blksize)
		})
	}
}

func TestSetTsize(t *testing.T) {
	var opts Options
	assert.ErrorIs(t, opts.SetTsize(-1), ErrNegativeTsize)
	assert.Nil(t, opts.Tsize)

	require.NoError(t, opts.SetTsize(0))
	require.NotNil(t, opts.Tsize)
	assert.Equal(t, int64(0), *opts.Tsize)
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name    string
		granted Options
		want    TransferParams
	}{
		{
			name:    "nothing granted means protocol defaults",
			granted: Options{},
			want:    TransferParams{Blksize: 512, Tsize: 0},
		},
		{
			// A requested-but-ungranted option reverts to its default even
			// when the client asked for both.
			name:    "only blksize granted",
			granted: Options{Blksize: intp(1024)},
			want:    TransferParams{Blksize: 1024, Tsize: 0},
		},
		{
			name:    "only tsize granted",
			granted: Options{Tsize: int64p(4096)},
			want:    TransferParams{Blksize: 512, Tsize: 4096},
		},
		{
			name:    "both granted",
			granted: Options{Blksize: intp(8), Tsize: int64p(17)},
			want:    TransferParams{Blksize: 8, Tsize: 17},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := negotiate(tt.granted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateRejectsInvalidGrants(t *testing.T) {
	tests := []struct {
		name    string
		granted Options
		wantErr error
	}{
		{"negative blksize", Options{Blksize: intp(-5)}, ErrBlockSizeRange},
		{"zero blksize", Options{Blksize: intp(0)}, ErrBlockSizeRange},
		{"blksize below minimum", Options{Blksize: intp(7)}, ErrBlockSizeRange},
		{"blksize above maximum", Options{Blksize: intp(65465)}, ErrBlockSizeRange},
		{"negative tsize", Options{Tsize: int64p(-1)}, ErrNegativeTsize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := negotiate(tt.granted)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOptionsIsZero(t *testing.T) {
	assert.True(t, Options{}.IsZero())
	assert.False(t, Options{Blksize: intp(512)}.IsZero())
	assert.False(t, Options{Tsize: int64p(0)}.IsZero())
}
