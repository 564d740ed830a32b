package http

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream broke")
}

func TestReadTextDefaultsToUTF8(t *testing.T) {
	stream := &closeTracker{Reader: bytes.NewReader([]byte("héllo"))}

	text, err := ReadText(stream, "")
	require.NoError(t, err)
	assert.Equal(t, "héllo", text)
	assert.True(t, stream.closed)
}

func TestReadTextDecodesLatin1(t *testing.T) {
	// 0xE9 is é in ISO-8859-1.
	stream := &closeTracker{Reader: bytes.NewReader([]byte{0x63, 0x61, 0x66, 0xE9})}

	text, err := ReadText(stream, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestReadTextUnknownCharset(t *testing.T) {
	stream := &closeTracker{Reader: bytes.NewReader([]byte("data"))}

	_, err := ReadText(stream, "no-such-charset")
	require.Error(t, err)
	assert.True(t, stream.closed)
}

func TestReadTextClosesOnReadFailure(t *testing.T) {
	stream := &closeTracker{Reader: failingReader{}}

	_, err := ReadText(stream, "")
	require.Error(t, err)
	assert.True(t, stream.closed)
}

func TestReadTextEmptyStream(t *testing.T) {
	text, err := ReadText(io.NopCloser(bytes.NewReader(nil)), "utf-8")
	require.NoError(t, err)
	assert.Empty(t, text)
}
