package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"gymhub/internal/apperr"
	"gymhub/internal/db"
)

const productColumns = `id, sku, name, category, price_cents, stock_quantity, low_stock_threshold,
	is_active, created_at, updated_at`

const movementColumns = `id, product_id, change, reason, note, stock_after, created_by, created_at`

const saleColumns = `id, product_id, member_id, quantity, unit_price_cents, total_cents, sold_by, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func derived(list []Product) []Product {
	for i := range list {
		list[i].Derive()
	}
	return list
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	query := `
		INSERT INTO products (sku, name, category, price_cents, stock_quantity, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	var created Product
	err := r.db.GetContext(ctx, &created, query,
		p.SKU, p.Name, p.Category, p.PriceCents, p.StockQuantity, p.LowStockThreshold)
	if err != nil {
		return nil, db.Conflict(err, fmt.Sprintf("sku %s already exists", p.SKU))
	}
	created.Derive()
	return &created, nil
}

func (r *repository) Get(ctx context.Context, id int) (*Product, error) {
	var p Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("product %d", id))
	}
	p.Derive()
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, int, error) {
	var conds []string
	var args []interface{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if filter.LowOnly {
		conds = append(conds, "stock_quantity <= low_stock_threshold")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY name, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	var list []Product
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return derived(list), total, nil
}

func lockProduct(ctx context.Context, tx *sqlx.Tx, id int) (*Product, error) {
	var p Product
	err := tx.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, db.NotFound(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, productID, change int, reason, note string, stockAfter int, by *int) (*Movement, error) {
	var m Movement
	err := tx.GetContext(ctx, &m, `
		INSERT INTO stock_movements (product_id, change, reason, note, stock_after, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+movementColumns,
		productID, change, reason, note, stockAfter, by)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) Update(ctx context.Context, id int, req UpdateProductRequest) (*Adjustment, error) {
	var adj Adjustment
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := lockProduct(ctx, tx, id)
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &adj.Product, `
			UPDATE products SET
				name = COALESCE($2, name),
				category = COALESCE($3, category),
				price_cents = COALESCE($4, price_cents),
				low_stock_threshold = COALESCE($5, low_stock_threshold),
				is_active = COALESCE($6, is_active),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+productColumns,
			id, req.Name, req.Category, req.PriceCents, req.LowStockThreshold, req.IsActive)
		if err != nil {
			return err
		}
		adj.BecameLow = !before.Low() && adj.Product.Low()
		return nil
	})
	if err != nil {
		return nil, err
	}
	adj.Product.Derive()
	return &adj, nil
}

func (r *repository) Restock(ctx context.Context, id, quantity int, note string, by *int) (*Adjustment, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var adj Adjustment
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockProduct(ctx, tx, id); err != nil {
			return err
		}

		err := tx.GetContext(ctx, &adj.Product, `
			UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+productColumns, id, quantity)
		if err != nil {
			return err
		}

		adj.Movement, err = insertMovement(ctx, tx, id, quantity, ReasonRestock, note, adj.Product.StockQuantity, by)
		return err
	})
	if err != nil {
		return nil, err
	}
	adj.Product.Derive()
	return &adj, nil
}

// Sell records a sale and takes the quantity out of stock. Selling more than
// is on hand is a conflict; stock never goes negative.
func (r *repository) Sell(ctx context.Context, p SaleParams) (*Adjustment, error) {
	if p.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var adj Adjustment
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := lockProduct(ctx, tx, p.ProductID)
		if err != nil {
			return err
		}
		if !before.IsActive {
			return apperr.Validation("product %d is not for sale", before.ID)
		}
		if before.StockQuantity < p.Quantity {
			return apperr.Conflict("only %d of %s in stock", before.StockQuantity, before.SKU)
		}

		err = tx.GetContext(ctx, &adj.Product, `
			UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			WHERE id = $1 AND stock_quantity >= $2
			RETURNING `+productColumns, p.ProductID, p.Quantity)
		if err != nil {
			return err
		}

		adj.Movement, err = insertMovement(ctx, tx, p.ProductID, -p.Quantity, ReasonSale, "", adj.Product.StockQuantity, p.SoldBy)
		if err != nil {
			return err
		}

		var sale Sale
		err = tx.GetContext(ctx, &sale, `
			INSERT INTO sales (product_id, member_id, quantity, unit_price_cents, total_cents, sold_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+saleColumns,
			p.ProductID, p.MemberID, p.Quantity, before.PriceCents, before.PriceCents*int64(p.Quantity), p.SoldBy)
		if err != nil {
			return err
		}
		adj.Sale = &sale
		adj.BecameLow = !before.Low() && adj.Product.Low()
		return nil
	})
	if err != nil {
		return nil, err
	}
	adj.Product.Derive()
	return &adj, nil
}

func (r *repository) Movements(ctx context.Context, productID, limit, offset int) ([]Movement, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM stock_movements WHERE product_id = $1`, productID); err != nil {
		return nil, 0, err
	}

	var list []Movement
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) Sales(ctx context.Context, filter SaleFilter, limit, offset int) ([]SaleDetail, int, error) {
	var conds []string
	var args []interface{}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conds = append(conds, fmt.Sprintf("s.product_id = $%d", len(args)))
	}
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		conds = append(conds, fmt.Sprintf("s.member_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("s.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("s.created_at < $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sales s`+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `
		SELECT s.id, s.product_id, s.member_id, s.quantity, s.unit_price_cents, s.total_cents, s.sold_by, s.created_at,
			p.sku, p.name AS product_name
		FROM sales s
		JOIN products p ON p.id = s.product_id` + where +
		fmt.Sprintf(" ORDER BY s.created_at DESC, s.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var list []SaleDetail
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) LowStock(ctx context.Context) ([]Product, error) {
	var list []Product
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active = TRUE AND stock_quantity <= low_stock_threshold
		ORDER BY low_stock_threshold - stock_quantity DESC, name`)
	if err != nil {
		return nil, err
	}
	return derived(list), nil
}
