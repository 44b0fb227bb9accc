package inventory

import "context"

type Repository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Get(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, int, error)
	Update(ctx context.Context, id int, req UpdateProductRequest) (*Adjustment, error)
	Restock(ctx context.Context, id, quantity int, note string, by *int) (*Adjustment, error)
	Sell(ctx context.Context, p SaleParams) (*Adjustment, error)
	Movements(ctx context.Context, productID, limit, offset int) ([]Movement, int, error)
	Sales(ctx context.Context, filter SaleFilter, limit, offset int) ([]SaleDetail, int, error)
	LowStock(ctx context.Context) ([]Product, error)
}
