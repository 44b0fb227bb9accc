package inventory

import (
	"context"
	"strings"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

// Mailer sends the staff low-stock alert. *email.Service satisfies it.
type Mailer interface {
	SendLowStockAlert(ctx context.Context, to, sku, productName string, stock, threshold int) error
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	Get(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, int, error)
	Update(ctx context.Context, id int, req UpdateProductRequest) (*Product, error)
	Restock(ctx context.Context, id int, req RestockRequest, by *int) (*Adjustment, error)
	RecordSale(ctx context.Context, req SaleRequest, soldBy *int) (*Adjustment, error)
	Movements(ctx context.Context, productID, limit, offset int) ([]Movement, int, error)
	Sales(ctx context.Context, filter SaleFilter, limit, offset int) ([]SaleDetail, int, error)
	LowStock(ctx context.Context) ([]Product, error)
}

type service struct {
	repo    Repository
	mailer  Mailer
	alertTo string
}

// NewService wires the inventory service. Alerts are disabled when alertTo
// is empty.
func NewService(repo Repository, mailer Mailer, alertTo string) Service {
	return &service{repo: repo, mailer: mailer, alertTo: strings.TrimSpace(alertTo)}
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	p, err := s.repo.Create(ctx, &Product{
		SKU:               strings.ToUpper(strings.TrimSpace(req.SKU)),
		Name:              req.Name,
		Category:          req.Category,
		PriceCents:        req.PriceCents,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		return nil, err
	}
	s.refreshGauge(ctx)
	return p, nil
}

func (s *service) Get(ctx context.Context, id int) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *service) Update(ctx context.Context, id int, req UpdateProductRequest) (*Product, error) {
	adj, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.after(ctx, adj)
	return &adj.Product, nil
}

func (s *service) Restock(ctx context.Context, id int, req RestockRequest, by *int) (*Adjustment, error) {
	adj, err := s.repo.Restock(ctx, id, req.Quantity, req.Note, by)
	if err != nil {
		return nil, err
	}

	metrics.RecordStockMovement(ReasonRestock, req.Quantity)
	logger.Info("product restocked", "product_id", id, "quantity", req.Quantity, "stock", adj.Product.StockQuantity)
	s.after(ctx, adj)
	return adj, nil
}

func (s *service) RecordSale(ctx context.Context, req SaleRequest, soldBy *int) (*Adjustment, error) {
	adj, err := s.repo.Sell(ctx, SaleParams{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		MemberID:  req.MemberID,
		SoldBy:    soldBy,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStockMovement(ReasonSale, req.Quantity)
	logger.Info("sale recorded", "sale_id", adj.Sale.ID, "product_id", req.ProductID,
		"quantity", req.Quantity, "total_cents", adj.Sale.TotalCents, "stock", adj.Product.StockQuantity)
	s.after(ctx, adj)
	return adj, nil
}

func (s *service) Movements(ctx context.Context, productID, limit, offset int) ([]Movement, int, error) {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return nil, 0, err
	}
	return s.repo.Movements(ctx, productID, limit, offset)
}

func (s *service) Sales(ctx context.Context, filter SaleFilter, limit, offset int) ([]SaleDetail, int, error) {
	return s.repo.Sales(ctx, filter, limit, offset)
}

func (s *service) LowStock(ctx context.Context) ([]Product, error) {
	list, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetLowStockProducts(len(list))
	return list, nil
}

func (s *service) after(ctx context.Context, adj *Adjustment) {
	s.refreshGauge(ctx)
	if !adj.BecameLow {
		return
	}

	p := adj.Product
	logger.Warn("product below stock threshold", "product_id", p.ID, "sku", p.SKU,
		"stock", p.StockQuantity, "threshold", p.LowStockThreshold)
	if s.mailer == nil || s.alertTo == "" {
		return
	}
	if err := s.mailer.SendLowStockAlert(ctx, s.alertTo, p.SKU, p.Name, p.StockQuantity, p.LowStockThreshold); err != nil {
		logger.Error("failed to queue low stock alert", "product_id", p.ID, "error", err)
	}
}

func (s *service) refreshGauge(ctx context.Context) {
	list, err := s.repo.LowStock(ctx)
	if err != nil {
		logger.Error("failed to count low stock products", "error", err)
		return
	}
	metrics.SetLowStockProducts(len(list))
}
