// Package media stores uploaded item and location images with their thumbnails.
package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"

	_ "golang.org/x/image/webp"
)

// Thumbnail geometry
const (
	ThumbnailSize    = 200
	ThumbnailQuality = 80
	ThumbnailPrefix  = "thumb_"
	DefaultExt       = ".jpg"

	// ObjectPrefix is where mirrored images live in object storage.
	ObjectPrefix = "items"
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service writes images to disk and optionally mirrors them to object storage.
type Service struct {
	imagesDir string
	thumbsDir string
	objects   objectstore.Store
	prefix    string
	now       func() time.Time
	logger    *logger.Logger
}

// NewService creates a media service. objects may be nil.
func NewService(imagesDir, thumbsDir string, objects objectstore.Store, prefix string, log *logger.Logger) (*Service, error) {
	for _, dir := range []string{imagesDir, thumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &Service{
		imagesDir: imagesDir,
		thumbsDir: thumbsDir,
		objects:   objects,
		prefix:    prefix,
		now:       time.Now,
		logger:    log.WithComponent("media"),
	}, nil
}

// ImagesDir returns the directory served under /images.
func (s *Service) ImagesDir() string { return s.imagesDir }

// ThumbnailsDir returns the directory served under /thumbnails.
func (s *Service) ThumbnailsDir() string { return s.thumbsDir }

// SaveItemImage stores an item image as item_<id>_<unixms><ext>.
func (s *Service) SaveItemImage(ctx context.Context, itemID int, up *domain.Upload) (*domain.ItemImage, error) {
	return s.save(ctx, "item", itemID, up)
}

// SaveLocationImage stores a location image as location_<id>_<unixms><ext>.
func (s *Service) SaveLocationImage(ctx context.Context, locationID int, up *domain.Upload) (*domain.ItemImage, error) {
	return s.save(ctx, "location", locationID, up)
}

func (s *Service) save(ctx context.Context, kind string, id int, up *domain.Upload) (*domain.ItemImage, error) {
	if up == nil || len(up.Data) == 0 {
		return nil, errors.BadRequestKey("errors.missing_image", nil)
	}
	ext, err := Extension(up.Filename, up.ContentType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filename := fmt.Sprintf("%s_%d_%d%s", kind, id, now.UnixMilli(), ext)
	if err := writeFile(filepath.Join(s.imagesDir, filename), up.Data); err != nil {
		return nil, errors.Wrap(err, "MEDIA_WRITE_FAILED", "failed to store image", http.StatusInternalServerError)
	}

	thumbName := ThumbnailPrefix + filename
	thumb, err := Thumbnail(up.Data)
	if err != nil {
		os.Remove(filepath.Join(s.imagesDir, filename))
		return nil, errors.BadRequestKey("errors.unsupported_image", nil)
	}
	if err := writeFile(filepath.Join(s.thumbsDir, thumbName), thumb); err != nil {
		return nil, errors.Wrap(err, "MEDIA_WRITE_FAILED", "failed to store thumbnail", http.StatusInternalServerError)
	}

	img := &domain.ItemImage{
		URL:        "/images/" + filename,
		Thumbnail:  "/thumbnails/" + thumbName,
		Filename:   filename,
		UploadedAt: now,
	}

	if s.objects != nil {
		key := s.objectKey(filename)
		if err := s.objects.Put(ctx, key, up.Data, ContentType(filename)); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("image mirror failed")
		} else {
			img.S3Key = &key
		}
	}

	s.logger.Debug().Str("filename", filename).Int("bytes", len(up.Data)).Msg("image stored")
	return img, nil
}

// RemoveImages deletes files, thumbnails and mirrored copies. Failures are logged.
func (s *Service) RemoveImages(ctx context.Context, images []domain.ItemImage) {
	for _, img := range images {
		name := filepath.Base(img.Filename)
		if name == "." || name == "/" || name == "" {
			continue
		}
		for _, p := range []string{
			filepath.Join(s.imagesDir, name),
			filepath.Join(s.thumbsDir, ThumbnailPrefix+name),
		} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("path", p).Msg("failed to remove image file")
			}
		}

		if s.objects == nil {
			continue
		}
		key := s.objectKey(name)
		if img.S3Key != nil {
			key = *img.S3Key
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove mirrored image")
		}
	}
}

func (s *Service) objectKey(filename string) string {
	return objectstore.JoinKey(s.prefix, ObjectPrefix+"/"+filename)
}

// Extension picks the stored file extension from the filename, then the content type.
func Extension(filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		if !allowedExt[ext] {
			return "", errors.BadRequestKey("errors.unsupported_image", nil)
		}
		return ext, nil
	}
	if e, ok := extByContentType[strings.ToLower(contentType)]; ok {
		return e, nil
	}
	return DefaultExt, nil
}

// Thumbnail crops data to a ThumbnailSize square and encodes it as JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Fill(src, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
