package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Seeder puts reference rows in place after migrations. Seeders must be idempotent.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a function to Seeder.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, db *sqlx.DB) error
}

// Name implements Seeder.
func (s SeederFunc) Name() string { return s.Label }

// Seed implements Seeder.
func (s SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error {
	if s.Fn == nil {
		return nil
	}
	return s.Fn(ctx, db)
}

func runSeeders(ctx context.Context, db *sqlx.DB, seeders []Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, db); err != nil {
			return fmt.Errorf("bootstrap: seeder %s failed: %w", s.Name(), err)
		}
	}
	return nil
}
