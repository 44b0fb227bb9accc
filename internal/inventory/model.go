package inventory

import "time"

const (
	ReasonRestock = "restock"
	ReasonSale    = "sale"
)

type Product struct {
	ID                int       `db:"id" json:"id"`
	SKU               string    `db:"sku" json:"sku"`
	Name              string    `db:"name" json:"name"`
	Category          string    `db:"category" json:"category"`
	PriceCents        int64     `db:"price_cents" json:"price_cents"`
	StockQuantity     int       `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`

	IsLowStock bool `db:"-" json:"is_low_stock"`
	Deficit    int  `db:"-" json:"deficit"`
}

// Low reports whether stock is at or below the alert threshold.
func (p Product) Low() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// Derive fills in the computed fields. Call it on every product leaving the
// repository.
func (p *Product) Derive() {
	p.IsLowStock = p.Low()
	p.Deficit = 0
	if p.IsLowStock {
		p.Deficit = p.LowStockThreshold - p.StockQuantity
	}
}

type Movement struct {
	ID         int       `db:"id" json:"id"`
	ProductID  int       `db:"product_id" json:"product_id"`
	Change     int       `db:"change" json:"change"`
	Reason     string    `db:"reason" json:"reason"`
	Note       string    `db:"note" json:"note"`
	StockAfter int       `db:"stock_after" json:"stock_after"`
	CreatedBy  *int      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Sale struct {
	ID             int       `db:"id" json:"id"`
	ProductID      int       `db:"product_id" json:"product_id"`
	MemberID       *int      `db:"member_id" json:"member_id,omitempty"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`
	TotalCents     int64     `db:"total_cents" json:"total_cents"`
	SoldBy         *int      `db:"sold_by" json:"sold_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type SaleDetail struct {
	Sale
	SKU         string `db:"sku" json:"sku"`
	ProductName string `db:"product_name" json:"product_name"`
}

// Adjustment is the outcome of a stock mutation. BecameLow is set when the
// mutation moved the product from healthy into low stock.
type Adjustment struct {
	Product   Product   `json:"product"`
	Movement  *Movement `json:"movement,omitempty"`
	Sale      *Sale     `json:"sale,omitempty"`
	BecameLow bool      `json:"-"`
}

type ProductFilter struct {
	Category   string
	ActiveOnly bool
	LowOnly    bool
}

type SaleFilter struct {
	ProductID *int
	MemberID  *int
	From      *time.Time
	To        *time.Time
}

type SaleParams struct {
	ProductID int
	Quantity  int
	MemberID  *int
	SoldBy    *int
}

type CreateProductRequest struct {
	SKU               string `json:"sku" binding:"required,max=64"`
	Name              string `json:"name" binding:"required,max=255"`
	Category          string `json:"category" binding:"max=64"`
	PriceCents        int64  `json:"price_cents" binding:"gte=0"`
	StockQuantity     int    `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold int    `json:"low_stock_threshold" binding:"gte=0"`
}

type UpdateProductRequest struct {
	Name              *string `json:"name" binding:"omitempty,max=255"`
	Category          *string `json:"category" binding:"omitempty,max=64"`
	PriceCents        *int64  `json:"price_cents" binding:"omitempty,gte=0"`
	LowStockThreshold *int    `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	IsActive          *bool   `json:"is_active"`
}

type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Note     string `json:"note" binding:"max=1000"`
}

type SaleRequest struct {
	ProductID int  `json:"product_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
	MemberID  *int `json:"member_id" binding:"omitempty,min=1"`
}
