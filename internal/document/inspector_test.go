package document

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInspector_Inspect(t *testing.T) {
	dir := t.TempDir()
	inspector := NewInspector(zap.NewNop())

	t.Run("missing file", func(t *testing.T) {
		_, err := inspector.Inspect(filepath.Join(dir, "missing.pdf"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.pdf")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		_, err := inspector.Inspect(path)
		assert.Error(t, err)
	})

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "receipt.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))))
		require.NoError(t, f.Close())

		info, err := inspector.Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, KindImage, info.Kind)
		assert.Equal(t, 1, info.Pages)
	})

	t.Run("corrupt image", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jpg")
		require.NoError(t, os.WriteFile(path, []byte("not a jpeg"), 0644))
		_, err := inspector.Inspect(path)
		assert.Error(t, err)
	})

	t.Run("other types pass through", func(t *testing.T) {
		path := filepath.Join(dir, "notes.docx")
		require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
		info, err := inspector.Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, KindOther, info.Kind)
	})
}
