package service

import (
	"testing"

	"gorm.io/gorm"

	"kitchen-service/internal/store"
	"kitchen-service/internal/testutil"
	"kitchen-service/pkg/cache"
)

const tenantID uint = 1

type services struct {
	db      *gorm.DB
	scope   *store.Scope
	ledger  *Ledger
	catalog *Catalog
	sales   *SaleEngine
}

func newServices(t *testing.T, c cache.Cache) services {
	t.Helper()
	db := testutil.NewDB(t)
	scope := store.NewScope(db)
	return services{
		db:      db,
		scope:   scope,
		ledger:  NewLedger(scope, c, 10),
		catalog: NewCatalog(scope, c),
		sales:   NewSaleEngine(scope),
	}
}

func ptr[T any](v T) *T { return &v }
