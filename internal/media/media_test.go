package media_test

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/media"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "image/jpeg"
)

func newService(t *testing.T, objects objectstore.Store) (*media.Service, string, string) {
	t.Helper()
	_, images, thumbs := testutil.DataDirs(t)
	svc, err := media.NewService(images, thumbs, objects, "", logger.Nop())
	require.NoError(t, err)
	return svc, images, thumbs
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
		wantErr     bool
	}{
		{"photo.JPG", "", ".jpg", false},
		{"photo.webp", "image/png", ".webp", false},
		{"blob", "image/png", ".png", false},
		{"blob", "", ".jpg", false},
		{"script.exe", "image/png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"|"+tt.contentType, func(t *testing.T) {
			got, err := media.Extension(tt.filename, tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThumbnail_IsSquareJPEG(t *testing.T) {
	thumb, err := media.Thumbnail(testutil.PNG(t, 640, 320))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, media.ThumbnailSize, cfg.Width)
	assert.Equal(t, media.ThumbnailSize, cfg.Height)
}

func TestSaveItemImage_WritesFilesAndMirror(t *testing.T) {
	objects := objectstore.NewMemory("https://bucket.example")
	svc, images, thumbs := newService(t, objects)
	ctx := context.Background()

	img, err := svc.SaveItemImage(ctx, 7, &domain.Upload{Filename: "milk.png", ContentType: "image/png", Data: testutil.PNG(t, 50, 50)})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.Filename, "item_7_"))
	assert.True(t, strings.HasSuffix(img.Filename, ".png"))
	assert.Equal(t, "/images/"+img.Filename, img.URL)
	assert.Equal(t, "/thumbnails/thumb_"+img.Filename, img.Thumbnail)
	assert.FileExists(t, filepath.Join(images, img.Filename))
	assert.FileExists(t, filepath.Join(thumbs, "thumb_"+img.Filename))

	require.NotNil(t, img.S3Key)
	assert.Equal(t, "items/"+img.Filename, *img.S3Key)
	assert.Equal(t, "image/png", objects.ContentType(*img.S3Key))

	svc.RemoveImages(ctx, []domain.ItemImage{*img})
	assert.NoFileExists(t, filepath.Join(images, img.Filename))
	assert.NoFileExists(t, filepath.Join(thumbs, "thumb_"+img.Filename))
	assert.Empty(t, objects.Keys())
}

func TestSaveLocationImage_RejectsGarbage(t *testing.T) {
	svc, images, _ := newService(t, nil)

	_, err := svc.SaveLocationImage(context.Background(), 1, &domain.Upload{Filename: "x.jpg", Data: []byte("not an image")})
	require.Error(t, err)

	entries, err := os.ReadDir(images)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.SaveLocationImage(context.Background(), 1, &domain.Upload{Filename: "x.jpg"})
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	svc, images, _ := newService(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(images, "item_1_1.jpg"), testutil.JPEG(t, 4, 4), 0o644))

	r := chi.NewRouter()
	svc.Register(r)

	tests := []struct {
		path   string
		status int
	}{
		{"/images/item_1_1.jpg", http.StatusOK},
		{"/images/missing.jpg", http.StatusNotFound},
		{"/images/..%2f..%2fetc%2fpasswd", http.StatusNotFound},
		{"/thumbnails/thumb_item_1_1.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := testutil.ExecuteRequest(r, testutil.NewJSONRequest(http.MethodGet, tt.path, nil))
			testutil.AssertStatus(t, rr, tt.status)
			if tt.status == http.StatusOK {
				assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
				assert.Equal(t, media.CacheControl, rr.Header().Get("Cache-Control"))
			}
		})
	}
}
