package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	apperrors "github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	flushes int
	err     error
}

func (f *fakeSaver) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func (f *fakeSaver) LastSaved() (time.Time, bool) { return time.Time{}, f.flushes > 0 }
func (f *fakeSaver) Pending() bool                { return false }

func TestSystemService_Health(t *testing.T) {
	svc := service.NewSystemService(store.New(nil), &fakeSaver{}, service.SystemConfig{
		Environment: "test", StorageBackend: "file",
	}, logger.Nop())

	h := svc.Health(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 5, h.LocationCount)
	assert.Equal(t, 10, h.CategoryCount)
	assert.Zero(t, h.ItemCount)
	assert.False(t, h.S3Enabled)
	assert.Nil(t, h.LastSaved)

	info := svc.Info(context.Background())
	assert.Equal(t, "스마트 재물관리 API", info.Message)
	assert.Equal(t, "1.2.0", info.Version)
}

func TestSystemService_Backups(t *testing.T) {
	saver := &fakeSaver{}
	ctx := context.Background()

	local := service.NewSystemService(store.New(nil), saver, service.SystemConfig{}, logger.Nop())
	res, err := local.Backup(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, saver.flushes)

	_, err = local.BackupToS3(ctx)
	require.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "S3가 활성화되지 않았습니다.", appErr.Message)

	mirrored := service.NewSystemService(store.New(nil), saver, service.SystemConfig{S3Enabled: true, S3Bucket: "inv"}, logger.Nop())
	res, err = mirrored.BackupToS3(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S3 백업이 완료되었습니다.", res.Message)
	assert.Equal(t, "inv", res.Bucket)

	saver.err = errors.New("disk full")
	_, err = mirrored.Backup(ctx)
	assert.True(t, apperrors.Is(err, apperrors.ErrInternal))
}
