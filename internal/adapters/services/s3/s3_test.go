package s3

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	require.NoError(t, m.UploadFile(ctx, "courses/1/image.png", strings.NewReader("png"), "image/png"))

	obj, err := m.Get("courses/1/image.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	require.NoError(t, m.DeleteFile(ctx, "courses/1/image.png"))
	_, err = m.Get("courses/1/image.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
