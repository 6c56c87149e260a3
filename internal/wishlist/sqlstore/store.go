// Package sqlstore implements wishlist.Store on top of sqlx.
// Queries are written with '?' placeholders and rebound for the connected driver,
// so the same statements run on PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/wishbot/core/logger"
	"github.com/m3rciful/wishbot/core/metrics"
	"github.com/m3rciful/wishbot/internal/wishlist"
)

const giftColumns = `g.gift_id, g.catalog_id, g.user_id, g.title, g.description, g.link, c.name AS catalog_name`

// gifts visible to a user: authored by them and filed in a shared catalog or one they own
const visibleGifts = `FROM gifts g JOIN catalogs c ON c.catalog_id = g.catalog_id
WHERE g.user_id = ? AND (c.user_id = ? OR c.user_id IS NULL)`

const ownedOrShared = `catalog_id IN (SELECT catalog_id FROM catalogs WHERE user_id = ? OR user_id IS NULL)`

var fieldColumns = map[wishlist.Field]string{
	wishlist.FieldTitle:       "title",
	wishlist.FieldDescription: "description",
	wishlist.FieldLink:        "link",
}

// Store persists users, catalogs and gifts.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ wishlist.Store = (*Store)(nil)

// New wraps an open connection whose schema is already migrated.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// observe records the outcome of one operation. Missing rows and rejected input
// are expected and only counted.
func observe(ctx context.Context, lg *slog.Logger, op string, start time.Time, err error) {
	took := time.Since(start)
	metrics.RecordStoreOperation(op, took, err)
	lvl := logLevel(err)
	if lvl == slog.LevelDebug && !logger.ShouldSampleDebug() {
		return
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	logger.LogEvent(ctx, lg, lvl, op, attrs...)
}

func logLevel(err error) slog.Level {
	if err == nil || wishlist.IsNotFound(err) || wishlist.IsValidation(err) {
		return slog.LevelDebug
	}
	return slog.LevelError
}

func (s *Store) UpsertUser(ctx context.Context, id int64, username string) (err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "user.upsert", start, err) }(time.Now())

	return upsertUser(ctx, s.db, id, username, s.now())
}

func upsertUser(ctx context.Context, db sqlx.ExtContext, id int64, username string, now time.Time) error {
	var name *string
	if u := strings.TrimSpace(username); u != "" {
		name = &u
	}
	_, err := db.ExecContext(ctx, db.Rebind(
		`INSERT INTO users (user_id, username, registration_date) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING`), id, name, now.UTC())
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (u wishlist.User, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "user.get", start, err) }(time.Now())

	err = s.db.GetContext(ctx, &u, s.q(`SELECT user_id, username, registration_date FROM users WHERE user_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return u, wishlist.ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) ListCatalogs(ctx context.Context, userID int64) (out []wishlist.Catalog, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCCatalogs, "catalog.list", start, err) }(time.Now())

	err = s.db.SelectContext(ctx, &out, s.q(
		`SELECT catalog_id, user_id, name, event_date FROM catalogs
WHERE user_id IS NULL OR user_id = ?
ORDER BY catalog_id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return out, nil
}

func (s *Store) FindCatalog(ctx context.Context, owner *int64, name string) (c wishlist.Catalog, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCCatalogs, "catalog.find", start, err) }(time.Now())
	return findCatalog(ctx, s.db, owner, strings.TrimSpace(name))
}

func findCatalog(ctx context.Context, db sqlx.ExtContext, owner *int64, name string) (wishlist.Catalog, error) {
	var (
		c    wishlist.Catalog
		err  error
		base = `SELECT catalog_id, user_id, name, event_date FROM catalogs WHERE name = ? AND `
	)
	if owner == nil {
		err = sqlx.GetContext(ctx, db, &c, db.Rebind(base+`user_id IS NULL`), name)
	} else {
		err = sqlx.GetContext(ctx, db, &c, db.Rebind(base+`user_id = ?`), name, *owner)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return c, wishlist.ErrCatalogNotFound
	}
	if err != nil {
		return c, fmt.Errorf("find catalog %q: %w", name, err)
	}
	return c, nil
}

func (s *Store) CreateCatalog(ctx context.Context, owner *int64, name string, eventDate *time.Time) (id int64, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCCatalogs, "catalog.create", start, err) }(time.Now())

	name = strings.TrimSpace(name)
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var cerr error
		id, cerr = createCatalog(ctx, tx, owner, name, eventDate)
		return cerr
	})
	if err != nil {
		return 0, fmt.Errorf("create catalog %q: %w", name, err)
	}
	return id, nil
}

// createCatalog looks the catalog up by (owner, name) and inserts it when missing.
func createCatalog(ctx context.Context, tx *sqlx.Tx, owner *int64, name string, eventDate *time.Time) (id int64, err error) {
	existing, ferr := findCatalog(ctx, tx, owner, name)
	if ferr == nil {
		return existing.ID, nil
	}
	if !errors.Is(ferr, wishlist.ErrCatalogNotFound) {
		return 0, ferr
	}

	var date *time.Time
	if eventDate != nil {
		d := eventDate.UTC()
		date = &d
	}
	var ownerArg any
	if owner != nil {
		ownerArg = *owner
	}
	rows, err := tx.QueryxContext(ctx, tx.Rebind(
		`INSERT INTO catalogs (user_id, name, event_date) VALUES (?, ?, ?)
ON CONFLICT (user_id, name) DO NOTHING
RETURNING catalog_id`), ownerArg, name, date)
	if err != nil {
		return 0, err
	}
	inserted := false
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, err
		}
		inserted = true
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if inserted {
		return id, nil
	}
	// lost a race with a concurrent insert of the same name
	existing, err = findCatalog(ctx, tx, owner, name)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (s *Store) ListGifts(ctx context.Context, f wishlist.GiftFilter) (out []wishlist.Gift, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.list", start, err) }(time.Now())

	query := `SELECT ` + giftColumns + ` ` + visibleGifts
	args := []any{f.UserID, f.UserID}
	if f.CatalogID != nil {
		query += ` AND g.catalog_id = ?`
		args = append(args, *f.CatalogID)
	}
	query += ` ORDER BY g.gift_id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	if err = s.db.SelectContext(ctx, &out, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	return out, nil
}

func (s *Store) GetGift(ctx context.Context, userID, giftID int64) (g wishlist.Gift, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.get", start, err) }(time.Now())

	err = s.db.GetContext(ctx, &g, s.q(`SELECT `+giftColumns+` `+visibleGifts+` AND g.gift_id = ?`), userID, userID, giftID)
	if errors.Is(err, sql.ErrNoRows) {
		return g, wishlist.ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("get gift %d: %w", giftID, err)
	}
	return g, nil
}

func (s *Store) CreateGift(ctx context.Context, in wishlist.NewGift) (id int64, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.create", start, err) }(time.Now())

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var ierr error
		id, ierr = insertGift(ctx, tx, in)
		return ierr
	})
	if err != nil {
		return 0, fmt.Errorf("create gift: %w", err)
	}
	return id, nil
}

func (s *Store) AddGift(ctx context.Context, in wishlist.NewGift) (id int64, err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.add", start, err) }(time.Now())

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := upsertUser(ctx, tx, in.UserID, in.Username, s.now()); err != nil {
			return err
		}
		if name := strings.TrimSpace(in.CatalogName); name != "" {
			cid, err := createCatalog(ctx, tx, &in.UserID, name, nil)
			if err != nil {
				return fmt.Errorf("catalog %q: %w", name, err)
			}
			in.CatalogID = cid
		}
		var ierr error
		id, ierr = insertGift(ctx, tx, in)
		return ierr
	})
	if err != nil {
		return 0, fmt.Errorf("add gift: %w", err)
	}
	return id, nil
}

// insertGift fails with ErrCatalogNotFound unless the catalog is shared or owned by the author.
func insertGift(ctx context.Context, tx *sqlx.Tx, in wishlist.NewGift) (id int64, err error) {
	var owner sql.NullInt64
	err = tx.GetContext(ctx, &owner, tx.Rebind(`SELECT user_id FROM catalogs WHERE catalog_id = ?`), in.CatalogID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, wishlist.ErrCatalogNotFound
	}
	if err != nil {
		return 0, err
	}
	if owner.Valid && owner.Int64 != in.UserID {
		return 0, wishlist.ErrCatalogNotFound
	}
	err = tx.GetContext(ctx, &id, tx.Rebind(
		`INSERT INTO gifts (catalog_id, user_id, title, description, link) VALUES (?, ?, ?, ?, ?)
RETURNING gift_id`), in.CatalogID, in.UserID, in.Title, in.Description, in.Link)
	return id, err
}

func (s *Store) UpdateGiftField(ctx context.Context, userID, giftID int64, field wishlist.Field, value *string) (err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.update", start, err) }(time.Now())

	col, ok := fieldColumns[field]
	if !ok {
		return wishlist.ErrInvalidField
	}
	if field == wishlist.FieldTitle && value == nil {
		return &wishlist.ValidationError{Field: "title", Reason: "The title cannot be empty."}
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE gifts SET `+col+` = ? WHERE gift_id = ? AND user_id = ? AND `+ownedOrShared),
		value, giftID, userID, userID)
	if err != nil {
		return fmt.Errorf("update gift %d %s: %w", giftID, field, err)
	}
	return expectOne(res)
}

func (s *Store) DeleteGift(ctx context.Context, giftID, userID int64) (err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCGifts, "gift.delete", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, s.q(
		`DELETE FROM gifts WHERE gift_id = ? AND user_id = ? AND `+ownedOrShared),
		giftID, userID, userID)
	if err != nil {
		return fmt.Errorf("delete gift %d: %w", giftID, err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return wishlist.ErrNotFound
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// EnsureDefaultCatalog restores the shared catalog if it is missing and checks that nobody owns it.
func (s *Store) EnsureDefaultCatalog(ctx context.Context) (err error) {
	defer func(start time.Time) { observe(ctx, logger.SVCCatalogs, "catalog.seed", start, err) }(time.Now())

	if _, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO catalogs (catalog_id, user_id, name) VALUES (?, NULL, ?) ON CONFLICT (catalog_id) DO NOTHING`),
		wishlist.DefaultCatalogID, wishlist.DefaultCatalogName,
	); err != nil {
		return fmt.Errorf("seed default catalog: %w", err)
	}

	var owner sql.NullInt64
	if err = s.db.GetContext(ctx, &owner, s.q(`SELECT user_id FROM catalogs WHERE catalog_id = ?`), wishlist.DefaultCatalogID); err != nil {
		return fmt.Errorf("check default catalog: %w", err)
	}
	if owner.Valid {
		return fmt.Errorf("default catalog #%d is owned by user %d", wishlist.DefaultCatalogID, owner.Int64)
	}
	return nil
}
