// Package store defines the persistence boundary of the box office.
// A Store rebuilds a registry from three record streams (events,
// customers, tickets) and serializes one back. The read path trusts
// the stored event and ticket level totals; outer accumulators are
// derived by accruing them, never recomputed from seats.
package store

import (
	"context"

	"github.com/ticketminer/box-office/internal/registry"
)

// Store loads and saves a full registry snapshot.
type Store interface {
	Load(ctx context.Context) (*registry.Registry, error)
	Save(ctx context.Context, reg *registry.Registry) error
}
