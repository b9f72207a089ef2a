// Package service implements the inventory operations over the shared store.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
)

// ImageStore saves and removes image files. Implemented by media.Service.
type ImageStore interface {
	SaveItemImage(ctx context.Context, itemID int, up *domain.Upload) (*domain.ItemImage, error)
	SaveLocationImage(ctx context.Context, locationID int, up *domain.Upload) (*domain.ItemImage, error)
	RemoveImages(ctx context.Context, images []domain.ItemImage)
}

// ActivityLog records user actions. Implemented by auth.Service.
type ActivityLog interface {
	RecordActivity(ctx context.Context, action string, details map[string]any)
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int
}

// UnmarshalJSON records that the field was present.
func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// SetID returns an OptionalID holding v.
func SetID(v *int) OptionalID {
	return OptionalID{Set: true, Value: v}
}

func recordActivity(ctx context.Context, log ActivityLog, action string, details map[string]any) {
	if log == nil {
		return
	}
	log.RecordActivity(ctx, action, details)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
