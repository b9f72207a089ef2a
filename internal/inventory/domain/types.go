// Package domain holds the inventory entities as they are persisted.
package domain

import "time"

// DefaultUnit is used when an item is created without a unit.
const DefaultUnit = "개"

// Category defaults
const (
	DefaultCategoryColor = "#9E9E9E"
	DefaultCategoryIcon  = "📦"
)

// Stock thresholds
const (
	LowStockThreshold = 5
	OutOfStockLevel   = 0
)

// MaxLocationLevel is the deepest level a location may sit at (0-based).
const MaxLocationLevel = 3

// Item is a household item.
type Item struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LocationID   *int      `json:"locationId"`
	CategoryID   *int      `json:"categoryId"`
	Quantity     int       `json:"quantity"`
	Unit         string    `json:"unit"`
	Price        *int      `json:"price,omitempty"`
	ImageURL     *string   `json:"imageUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ItemImage is one uploaded image of an item.
type ItemImage struct {
	URL        string    `json:"url"`
	Thumbnail  string    `json:"thumbnail"`
	Filename   string    `json:"filename"`
	S3Key      *string   `json:"s3Key"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Category groups items.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Location is a node in the storage tree.
type Location struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	ParentID     *int       `json:"parentId"`
	Level        int        `json:"level"`
	Type         string     `json:"type,omitempty"`
	Description  string     `json:"description"`
	ImageURL     *string    `json:"imageUrl"`
	ThumbnailURL *string    `json:"thumbnailUrl"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// HistoryType is the direction of a stock movement.
type HistoryType string

const (
	StockIn  HistoryType = "stock_in"
	StockOut HistoryType = "stock_out"
)

// Default stock movement reasons
const (
	ReasonStockIn       = "일반 입고"
	ReasonStockOut      = "일반 출고"
	ReasonReceiptImport = "영수증 입고"
)

// HistoryEntry is an append-only stock movement record.
type HistoryEntry struct {
	ID               int         `json:"id"`
	ItemID           int         `json:"itemId"`
	Type             HistoryType `json:"type"`
	Quantity         int         `json:"quantity"`
	PreviousQuantity int         `json:"previousQuantity"`
	CurrentQuantity  int         `json:"currentQuantity"`
	Note             string      `json:"note"`
	Reason           string      `json:"reason"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// IsLowStock reports quantity at or below the low-stock threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity <= LowStockThreshold
}

// IsOutOfStock reports an empty item.
func (i *Item) IsOutOfStock() bool {
	return i.Quantity <= OutOfStockLevel
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// StrPtr returns a pointer to s, or nil for the empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SameID compares two optional ids.
func SameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Upload is an uploaded file as received by a handler.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
