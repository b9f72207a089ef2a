package service

import (
	"context"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// APIVersion is reported by the info endpoint.
const APIVersion = "1.2.0"

// Features lists the capabilities advertised by the info endpoint.
var Features = []string{
	"물건 관리",
	"위치 계층 관리",
	"카테고리 관리",
	"입출고 기록",
	"이미지 업로드",
	"영수증 인식",
	"자연어 검색",
	"챗봇",
	"가족 계정",
}

// Saver forces a save of the inventory. Implemented by store.Flusher.
type Saver interface {
	Flush(ctx context.Context) error
	LastSaved() (time.Time, bool)
	Pending() bool
}

// SystemConfig describes the running deployment.
type SystemConfig struct {
	Environment    string
	StorageBackend string
	S3Enabled      bool
	S3Bucket       string
}

// SystemService reports health and forces backups.
type SystemService struct {
	store   *store.Store
	saver   Saver
	cfg     SystemConfig
	started time.Time
	logger  *logger.Logger
}

// NewSystemService creates a new system service
func NewSystemService(st *store.Store, saver Saver, cfg SystemConfig, log *logger.Logger) *SystemService {
	return &SystemService{
		store:   st,
		saver:   saver,
		cfg:     cfg,
		started: time.Now(),
		logger:  log,
	}
}

// HealthReport is the health endpoint body.
type HealthReport struct {
	Status         string     `json:"status"`
	Timestamp      time.Time  `json:"timestamp"`
	ItemCount      int        `json:"itemCount"`
	LocationCount  int        `json:"locationCount"`
	CategoryCount  int        `json:"categoryCount"`
	S3Enabled      bool       `json:"s3Enabled"`
	Environment    string     `json:"environment"`
	StorageBackend string     `json:"storageBackend"`
	Uptime         string     `json:"uptime"`
	LastSaved      *time.Time `json:"lastSaved,omitempty"`
	PendingChanges bool       `json:"pendingChanges"`
}

// APIInfo is the root endpoint body.
type APIInfo struct {
	Message     string    `json:"message"`
	Version     string    `json:"version"`
	Features    []string  `json:"features"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// BackupResult is returned by the backup endpoints.
type BackupResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Bucket    string    `json:"bucket,omitempty"`
}

// Health reports entity counts and persistence state.
func (s *SystemService) Health(ctx context.Context) *HealthReport {
	r := &HealthReport{
		Status:         "healthy",
		Timestamp:      time.Now(),
		S3Enabled:      s.cfg.S3Enabled,
		Environment:    s.cfg.Environment,
		StorageBackend: s.cfg.StorageBackend,
		Uptime:         time.Since(s.started).Round(time.Second).String(),
	}
	s.store.View(func(st *store.State) {
		r.ItemCount = len(st.Items)
		r.LocationCount = len(st.Locations)
		r.CategoryCount = len(st.Categories)
	})
	if s.saver != nil {
		if t, ok := s.saver.LastSaved(); ok {
			r.LastSaved = &t
		}
		r.PendingChanges = s.saver.Pending()
	}
	return r
}

// Info describes the API.
func (s *SystemService) Info(ctx context.Context) *APIInfo {
	return &APIInfo{
		Message:     i18n.TFromContext(ctx, "system.api_name"),
		Version:     APIVersion,
		Features:    Features,
		Environment: s.cfg.Environment,
		Timestamp:   time.Now(),
	}
}

// Backup saves immediately to the configured backend.
func (s *SystemService) Backup(ctx context.Context) (*BackupResult, error) {
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	return &BackupResult{
		Success:   true,
		Message:   i18n.TFromContext(ctx, "system.backup_done"),
		Timestamp: time.Now(),
	}, nil
}

// BackupToS3 saves immediately; it requires S3 mirroring to be enabled.
func (s *SystemService) BackupToS3(ctx context.Context) (*BackupResult, error) {
	if !s.cfg.S3Enabled {
		return nil, errors.BadRequestKey("errors.s3_disabled", nil)
	}
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	return &BackupResult{
		Success:   true,
		Message:   i18n.TFromContext(ctx, "system.s3_backup_done"),
		Timestamp: time.Now(),
		Bucket:    s.cfg.S3Bucket,
	}, nil
}

func (s *SystemService) flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Flush(ctx); err != nil {
		s.logger.Error().Err(err).Msg("manual backup failed")
		return errors.Internal("backup failed")
	}
	return nil
}
