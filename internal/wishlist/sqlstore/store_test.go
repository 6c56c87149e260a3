package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/wishbot/core/database"
	"github.com/m3rciful/wishbot/internal/wishlist"
	"github.com/m3rciful/wishbot/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := database.Config{Driver: database.DriverSQLite, Path: ":memory:"}
	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.RunMigrations(db, cfg, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, s *Store, id int64) {
	t.Helper()
	if err := s.UpsertUser(context.Background(), id, "user"); err != nil {
		t.Fatalf("upsert user %d: %v", id, err)
	}
}

func mustGift(t *testing.T, s *Store, userID, catalogID int64, title string) int64 {
	t.Helper()
	id, err := s.CreateGift(context.Background(), wishlist.NewGift{UserID: userID, CatalogID: catalogID, Title: title})
	if err != nil {
		t.Fatalf("create gift %q: %v", title, err)
	}
	return id
}

func TestUpsertUserKeepsFirstRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }
	if err := s.UpsertUser(ctx, 7, "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s.now = func() time.Time { return first.Add(time.Hour) }
	if err := s.UpsertUser(ctx, 7, "renamed"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	u, err := s.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username == nil || *u.Username != "alice" {
		t.Fatalf("username = %v, want alice", u.Username)
	}
	if !u.RegistrationDate.Equal(first) {
		t.Fatalf("registration = %v, want %v", u.RegistrationDate, first)
	}
	if _, err := s.GetUser(ctx, 8); !errors.Is(err, wishlist.ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestDefaultCatalogSeeded(t *testing.T) {
	s := newTestStore(t)
	mustUser(t, s, 1)
	cats, err := s.ListCatalogs(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != wishlist.DefaultCatalogID || !cats[0].Shared() {
		t.Fatalf("catalogs = %+v", cats)
	}
}

func TestCreateCatalogIsIdempotentPerOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, 1)
	mustUser(t, s, 2)

	date := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	a, err := s.CreateCatalog(ctx, ptr[int64](1), " Birthday ", &date)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	again, err := s.CreateCatalog(ctx, ptr[int64](1), "Birthday", nil)
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if a != again {
		t.Fatalf("ids differ: %d vs %d", a, again)
	}
	other, err := s.CreateCatalog(ctx, ptr[int64](2), "Birthday", nil)
	if err != nil {
		t.Fatalf("create other owner: %v", err)
	}
	if other == a {
		t.Fatal("catalog names are scoped per owner")
	}

	c, err := s.FindCatalog(ctx, ptr[int64](1), "Birthday")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.EventDate == nil || !c.EventDate.Equal(date) {
		t.Fatalf("event date = %v", c.EventDate)
	}
	shared, err := s.CreateCatalog(ctx, nil, wishlist.DefaultCatalogName, nil)
	if err != nil || shared != wishlist.DefaultCatalogID {
		t.Fatalf("shared lookup = %d, %v", shared, err)
	}
	if _, err := s.FindCatalog(ctx, ptr[int64](1), "Wedding"); !errors.Is(err, wishlist.ErrCatalogNotFound) {
		t.Fatalf("missing catalog err = %v", err)
	}

	cats, err := s.ListCatalogs(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[1].ID != a {
		t.Fatalf("user 1 catalogs = %+v", cats)
	}
}

func TestCreateGiftRequiresVisibleCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, 1)
	mustUser(t, s, 2)
	foreign, err := s.CreateCatalog(ctx, ptr[int64](2), "Mine", nil)
	if err != nil {
		t.Fatalf("create catalog: %v", err)
	}

	_, err = s.CreateGift(ctx, wishlist.NewGift{UserID: 1, CatalogID: foreign, Title: "Book"})
	if !errors.Is(err, wishlist.ErrCatalogNotFound) {
		t.Fatalf("foreign catalog err = %v", err)
	}
	_, err = s.CreateGift(ctx, wishlist.NewGift{UserID: 1, CatalogID: 999, Title: "Book"})
	if !errors.Is(err, wishlist.ErrCatalogNotFound) {
		t.Fatalf("missing catalog err = %v", err)
	}
	gifts, err := s.ListGifts(ctx, wishlist.GiftFilter{UserID: 1})
	if err != nil || len(gifts) != 0 {
		t.Fatalf("rejected insert left rows: %v %v", gifts, err)
	}
}

func TestListGiftsScopesToAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, 1)
	mustUser(t, s, 2)
	own, err := s.CreateCatalog(ctx, ptr[int64](1), "Birthday", nil)
	if err != nil {
		t.Fatalf("create catalog: %v", err)
	}

	g1 := mustGift(t, s, 1, wishlist.DefaultCatalogID, "Book")
	g2 := mustGift(t, s, 1, own, "Lamp")
	mustGift(t, s, 2, wishlist.DefaultCatalogID, "Bike")

	all, err := s.ListGifts(ctx, wishlist.GiftFilter{UserID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != g1 || all[1].ID != g2 {
		t.Fatalf("gifts = %+v", all)
	}
	if all[1].CatalogName != "Birthday" || all[0].CatalogName != wishlist.DefaultCatalogName {
		t.Fatalf("catalog names = %q, %q", all[0].CatalogName, all[1].CatalogName)
	}

	scoped, err := s.ListGifts(ctx, wishlist.GiftFilter{UserID: 1, CatalogID: &own})
	if err != nil || len(scoped) != 1 || scoped[0].ID != g2 {
		t.Fatalf("scoped = %+v, %v", scoped, err)
	}
	limited, err := s.ListGifts(ctx, wishlist.GiftFilter{UserID: 1, Limit: 1})
	if err != nil || len(limited) != 1 || limited[0].ID != g1 {
		t.Fatalf("limited = %+v, %v", limited, err)
	}

	if _, err := s.GetGift(ctx, 2, g1); !errors.Is(err, wishlist.ErrNotFound) {
		t.Fatalf("foreign get err = %v", err)
	}
	got, err := s.GetGift(ctx, 1, g1)
	if err != nil || got.Title != "Book" || got.Description != nil {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

func TestUpdateGiftFieldTouchesOneColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, 1)
	mustUser(t, s, 2)
	id, err := s.CreateGift(ctx, wishlist.NewGift{
		UserID: 1, CatalogID: wishlist.DefaultCatalogID, Title: "Book",
		Description: ptr("hardcover"), Link: ptr("https://example.com/book"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateGiftField(ctx, 1, id, wishlist.FieldTitle, ptr("Novel")); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if err := s.UpdateGiftField(ctx, 1, id, wishlist.FieldLink, nil); err != nil {
		t.Fatalf("clear link: %v", err)
	}
	g, err := s.GetGift(ctx, 1, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.Title != "Novel" || g.Link != nil || g.Description == nil || *g.Description != "hardcover" {
		t.Fatalf("gift after update = %+v", g)
	}

	if err := s.UpdateGiftField(ctx, 2, id, wishlist.FieldTitle, ptr("Stolen")); !errors.Is(err, wishlist.ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}
	if err := s.UpdateGiftField(ctx, 1, id, wishlist.Field("catalog_id"), ptr("2")); !errors.Is(err, wishlist.ErrInvalidField) {
		t.Fatalf("bad field err = %v", err)
	}
	var verr *wishlist.ValidationError
	if err := s.UpdateGiftField(ctx, 1, id, wishlist.FieldTitle, nil); !errors.As(err, &verr) {
		t.Fatalf("nil title err = %v", err)
	}
}

func TestDeleteGiftRequiresAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, 1)
	mustUser(t, s, 2)
	id := mustGift(t, s, 1, wishlist.DefaultCatalogID, "Book")

	if err := s.DeleteGift(ctx, id, 2); !errors.Is(err, wishlist.ErrNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := s.DeleteGift(ctx, id, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteGift(ctx, id, 1); !errors.Is(err, wishlist.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestEnsureDefaultCatalogRestoresRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE catalog_id = 1`); err != nil {
		t.Fatalf("delete seed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.EnsureDefaultCatalog(ctx); err != nil {
			t.Fatalf("EnsureDefaultCatalog #%d: %v", i, err)
		}
	}
	mustUser(t, s, 1)
	c, err := s.FindCatalog(ctx, nil, wishlist.DefaultCatalogName)
	if err != nil {
		t.Fatalf("FindCatalog: %v", err)
	}
	if c.ID != wishlist.DefaultCatalogID || !c.Shared() {
		t.Fatalf("restored catalog = %+v", c)
	}
}

func TestAddGiftCreatesUserCatalogAndGift(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.AddGift(ctx, wishlist.NewGift{UserID: 4, Username: "dana", CatalogName: "Birthday", Title: "Book"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.GetUser(ctx, 4); err != nil {
		t.Fatalf("author not registered: %v", err)
	}
	g, err := s.GetGift(ctx, 4, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.CatalogName != "Birthday" || g.CatalogID == wishlist.DefaultCatalogID {
		t.Fatalf("gift filed into %d %q", g.CatalogID, g.CatalogName)
	}

	again, err := s.AddGift(ctx, wishlist.NewGift{UserID: 4, CatalogName: "Birthday", Title: "Lamp"})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if g2, _ := s.GetGift(ctx, 4, again); g2.CatalogID != g.CatalogID {
		t.Fatalf("second gift in catalog %d, want %d", g2.CatalogID, g.CatalogID)
	}

	shared, err := s.AddGift(ctx, wishlist.NewGift{UserID: 4, CatalogID: wishlist.DefaultCatalogID, Title: "Pen"})
	if err != nil {
		t.Fatalf("add shared: %v", err)
	}
	if g3, _ := s.GetGift(ctx, 4, shared); g3.CatalogID != wishlist.DefaultCatalogID {
		t.Fatalf("gift without catalog name filed into %d", g3.CatalogID)
	}
}
