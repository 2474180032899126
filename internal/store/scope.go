// Package store is the persistence collaborator of the inventory core: a
// unit-of-work scope over gorm and tenant-scoped repositories.
package store

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Repos groups the repositories bound to one *gorm.DB. Inside Execute they
// all share the same transaction.
type Repos struct {
	Ingredients *IngredientRepo
	Products    *ProductRepo
	Movements   *MovementRepo
	Tenants     *TenantRepo
}

func newRepos(db *gorm.DB) Repos {
	return Repos{
		Ingredients: &IngredientRepo{db: db},
		Products:    &ProductRepo{db: db},
		Movements:   &MovementRepo{db: db},
		Tenants:     &TenantRepo{db: db},
	}
}

// Scope hands out repositories, either bound to a transaction or not
type Scope struct {
	db *gorm.DB
}

// NewScope creates a scope over db
func NewScope(db *gorm.DB) *Scope {
	return &Scope{db: db}
}

// Execute runs fn inside one database transaction at read committed
// isolation or stronger. The transaction commits when fn returns nil and
// rolls back on an error or a panic.
func (s *Scope) Execute(ctx context.Context, fn func(repos Repos) error) error {
	opts := &sql.TxOptions{}
	if supportsRowLocks(s.db) {
		opts.Isolation = sql.LevelReadCommitted
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	}, opts)
}

// Read returns repositories outside any transaction, for single-statement reads
func (s *Scope) Read(ctx context.Context) Repos {
	return newRepos(s.db.WithContext(ctx))
}

// DB exposes the underlying handle for health checks
func (s *Scope) DB() *gorm.DB {
	return s.db
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is available.
// SQLite serialises writers instead.
func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
