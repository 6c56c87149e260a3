package wishlist

import (
	"context"
	"time"
)

// Store is the persistence contract. Every write is atomic.
// Ownership failures are reported as ErrNotFound so callers learn nothing about other users' data.
type Store interface {
	// UpsertUser inserts the user once; later calls leave the row untouched.
	UpsertUser(ctx context.Context, id int64, username string) error
	GetUser(ctx context.Context, id int64) (User, error)

	// ListCatalogs returns the shared default catalog followed by the user's own ones.
	ListCatalogs(ctx context.Context, userID int64) ([]Catalog, error)
	// CreateCatalog returns the id of the catalog named name for owner, creating it if needed.
	// A nil owner addresses shared catalogs.
	CreateCatalog(ctx context.Context, owner *int64, name string, eventDate *time.Time) (int64, error)
	FindCatalog(ctx context.Context, owner *int64, name string) (Catalog, error)

	// ListGifts returns the user's gifts ordered by id.
	ListGifts(ctx context.Context, f GiftFilter) ([]Gift, error)
	GetGift(ctx context.Context, userID, giftID int64) (Gift, error)
	// CreateGift fails with ErrCatalogNotFound unless the catalog is shared or owned by the author.
	CreateGift(ctx context.Context, g NewGift) (int64, error)
	// AddGift registers the author, resolves the catalog by name and inserts the gift
	// in one transaction.
	AddGift(ctx context.Context, g NewGift) (int64, error)
	// UpdateGiftField changes exactly one column. A nil value clears description or link.
	UpdateGiftField(ctx context.Context, userID, giftID int64, field Field, value *string) error
	// DeleteGift removes the gift only when the user authored it.
	DeleteGift(ctx context.Context, giftID, userID int64) error
}
