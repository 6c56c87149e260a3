// Package wishlist holds the users, catalogs and gifts of the wishlist bot
// together with their input rules and the persistence contract.
package wishlist

import "time"

// DefaultCatalogID is the shared catalog seeded by the first migration. It has no owner.
const DefaultCatalogID int64 = 1

// DefaultCatalogName is the seeded name of the shared catalog.
const DefaultCatalogName = "Shared list"

// User is a Telegram user seen by the bot.
type User struct {
	ID               int64     `db:"user_id"`
	Username         *string   `db:"username"`
	RegistrationDate time.Time `db:"registration_date"`
}

// Catalog groups gifts, usually per occasion. A nil OwnerID marks a shared catalog.
type Catalog struct {
	ID        int64      `db:"catalog_id"`
	OwnerID   *int64     `db:"user_id"`
	Name      string     `db:"name"`
	EventDate *time.Time `db:"event_date"`
}

// Shared reports whether nobody owns the catalog.
func (c Catalog) Shared() bool {
	return c.OwnerID == nil
}

// Gift is one wishlist entry. UserID is the author; CatalogID is where it is filed.
type Gift struct {
	ID          int64   `db:"gift_id"`
	CatalogID   int64   `db:"catalog_id"`
	UserID      int64   `db:"user_id"`
	Title       string  `db:"title"`
	Description *string `db:"description"`
	Link        *string `db:"link"`
	CatalogName string  `db:"catalog_name"`
}

// DescriptionOr returns the description or fallback when it is unset.
func (g Gift) DescriptionOr(fallback string) string {
	return derefOr(g.Description, fallback)
}

// LinkOr returns the link or fallback when it is unset.
func (g Gift) LinkOr(fallback string) string {
	return derefOr(g.Link, fallback)
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// Field names a gift column that can be edited on its own.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldLink        Field = "link"
)

// EditableFields lists the fields in the order they are offered to the user.
var EditableFields = []Field{FieldTitle, FieldDescription, FieldLink}

// ParseField maps user input to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(normalizeToken(s)); f {
	case FieldTitle, FieldDescription, FieldLink:
		return f, nil
	}
	return "", ErrInvalidField
}

// GiftFilter scopes ListGifts. Limit <= 0 means no limit.
type GiftFilter struct {
	UserID    int64
	CatalogID *int64
	Limit     int
}

// NewGift is the input of CreateGift and AddGift.
type NewGift struct {
	UserID      int64
	CatalogID   int64
	Title       string
	Description *string
	Link        *string

	// Username and CatalogName are used by AddGift only. A non-empty CatalogName
	// files the gift into the author's catalog of that name instead of CatalogID.
	Username    string
	CatalogName string
}
