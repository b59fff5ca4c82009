package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	CategoryID    *int64          `json:"category_id,omitempty" db:"category_id"` // nil when uncategorised
	IsArchived    bool            `json:"is_archived" db:"is_archived"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

// ParseSortKey maps a query-string value to a SortKey, falling back to
// SortNewest for anything unknown.
func ParseSortKey(raw string) SortKey {
	switch SortKey(raw) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	default:
		return SortNewest
	}
}

// Filter narrows a catalog search. Zero values mean no constraint.
type Filter struct {
	Query       string
	CategoryIDs []int64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        SortKey
}
