package preprocess_test

import (
	"context"
	"image/color"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/preprocess"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_DownscalesAndCleansUp(t *testing.T) {
	pp := preprocess.New(400, t.TempDir())

	prepared, err := pp.Prepare(context.Background(), testutil.JPEG(t, 1200, 600))
	require.NoError(t, err)
	assert.Equal(t, 400, prepared.Width)
	assert.Equal(t, 200, prepared.Height)
	assert.FileExists(t, prepared.Path)

	path := prepared.Path
	require.NoError(t, prepared.Close())
	assert.NoFileExists(t, path)
	assert.NoError(t, prepared.Close())
}

func TestPrepare_NeverUpscales(t *testing.T) {
	pp := preprocess.New(2000, t.TempDir())

	prepared, err := pp.Prepare(context.Background(), testutil.PNG(t, 300, 120))
	require.NoError(t, err)
	defer prepared.Close()

	assert.Equal(t, 300, prepared.Width)
	assert.Equal(t, 120, prepared.Height)
}

func TestPrepare_RejectsGarbageWithoutTempFile(t *testing.T) {
	dir := t.TempDir()
	pp := preprocess.New(0, dir)

	_, err := pp.Prepare(context.Background(), []byte("definitely not an image"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepare_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := preprocess.New(0, t.TempDir()).Prepare(ctx, testutil.PNG(t, 10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize_StretchesRange(t *testing.T) {
	img := imaging.New(2, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.Set(1, 0, color.NRGBA{R: 150, G: 150, B: 150, A: 255})

	out := preprocess.Normalize(img)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), out.NRGBAAt(1, 0).R)

	flat := imaging.New(2, 2, color.NRGBA{R: 80, G: 80, B: 80, A: 255})
	assert.Equal(t, flat, preprocess.Normalize(flat))
}
