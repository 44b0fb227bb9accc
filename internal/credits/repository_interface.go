package credits

import (
	"context"
)

type Repository interface {
	CreatePackage(ctx context.Context, p *Package) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool, limit, offset int) ([]Package, int, error)
	GetPackage(ctx context.Context, id int) (*Package, error)
	IsActiveMember(ctx context.Context, memberID int) (bool, error)
	IssuePass(ctx context.Context, pass Pass) (*Pass, error)
	ListPasses(ctx context.Context, memberID int) ([]Pass, error)
	ListLedger(ctx context.Context, memberID, limit, offset int) ([]Transaction, int, error)
}
