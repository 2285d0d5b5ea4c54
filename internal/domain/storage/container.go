package storage

import (
	"context"
	"fmt"

	"reviewhub/internal/domain/accesscontrol"
	"reviewhub/internal/domain/pushtokens"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/users"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
	"reviewhub/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores is the set of repositories a service works with, bound either to the
// pool or to a single transaction.
type Stores struct {
	Users         users.Store
	AccessControl accesscontrol.Store
	Venues        venues.Store
	Reviews       venuereviews.Store
	Stewardship   stewardship.Store
	PushTokens    pushtokens.Store
}

// UnitOfWork hands out pool-bound stores for reads and tx-bound stores for
// mutations that must commit atomically.
type UnitOfWork interface {
	Read() *Stores
	WithTx(ctx context.Context, fn func(s *Stores) error) error
}

type Container struct {
	pool   *pgxpool.Pool
	stores *Stores
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:   db,
		stores: newStores(db),
	}
}

func newStores(q dbx.Querier) *Stores {
	return &Stores{
		Users:         users.NewRepository(q),
		AccessControl: accesscontrol.NewRepository(q),
		Venues:        venues.NewRepository(q),
		Reviews:       venuereviews.NewRepository(q),
		Stewardship:   stewardship.NewRepository(q),
		PushTokens:    pushtokens.NewRepository(q),
	}
}

func (c *Container) Read() *Stores {
	return c.stores
}

// WithTx runs fn against tx-scoped stores and commits when fn returns nil.
func (c *Container) WithTx(ctx context.Context, fn func(s *Stores) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	if err := fn(newStores(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
