package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/wishbot/core/bootstrap"
	corecmd "github.com/m3rciful/wishbot/core/cmd"
	coreconfig "github.com/m3rciful/wishbot/core/config"
	"github.com/m3rciful/wishbot/core/logger"
	"github.com/m3rciful/wishbot/core/metrics"
	tg "github.com/m3rciful/wishbot/core/telegram"
	"github.com/m3rciful/wishbot/core/telegram/commands"
	"github.com/m3rciful/wishbot/core/telegram/router"
	"github.com/m3rciful/wishbot/core/telegram/state"
	"github.com/m3rciful/wishbot/internal/assistant"
	"github.com/m3rciful/wishbot/internal/config"
	"github.com/m3rciful/wishbot/internal/export"
	"github.com/m3rciful/wishbot/internal/wishlist/sqlstore"
	"github.com/m3rciful/wishbot/migrations"
)

// App owns the infrastructure of a running bot.
type App struct {
	cfg       *config.Config
	db        *sqlx.DB
	redis     *redis.Client
	assistant *assistant.Assistant
	handler   *Handler
}

// Bootstrap adapts New to the runner.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	return New(ctx, cfg)
}

// New initializes logging, the database with its schema, sessions and the snapshot store.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return newApp(ctx, cfg, logger.InitLogger)
}

func newApp(ctx context.Context, cfg *config.Config, loggerInit func(*coreconfig.Config) error) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders: []bootstrap.Seeder{bootstrap.SeederFunc{
			Label: "default_catalog",
			Fn: func(ctx context.Context, db *sqlx.DB) error {
				return sqlstore.New(db).EnsureDefaultCatalog(ctx)
			},
		}},
		LoggerInit: loggerInit,
	})
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, db: res.DB}

	sessions, err := app.openSessions(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	snapshots, err := export.NewFileStore(cfg.Export.Dir)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("bot: snapshot store: %w", err)
	}

	app.assistant = assistant.New(assistant.Options{
		Store:     sqlstore.New(res.DB),
		Sessions:  sessions,
		Snapshots: snapshots,
	})
	app.handler = NewHandler(app.assistant)
	return app, nil
}

// openSessions connects to Redis when configured and falls back to process memory otherwise.
func (a *App) openSessions(ctx context.Context) (state.Store, error) {
	rc := a.cfg.Redis
	if rc.Addr == "" {
		logger.Info(ctx, logger.CompSessions, "sessions.memory")
		return state.NewMemoryStore(), nil
	}
	a.redis = redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	store := state.NewRedisStore(a.redis, rc.SessionTTL)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("bot: redis %s unreachable: %w", rc.Addr, err)
	}
	logger.Info(ctx, logger.CompSessions, "sessions.redis",
		slog.String("addr", rc.Addr),
		slog.Duration("ttl", rc.SessionTTL),
	)
	return store, nil
}

// Registry registers every assistant command with its menu label as an alias,
// the inline button callbacks, and free text as the fallback.
func (a *App) Registry() *tg.Registry {
	return buildRegistry(a.handler)
}

func buildRegistry(h *Handler) *tg.Registry {
	reg := tg.NewRegistry()
	for _, c := range assistant.Commands {
		var aliases []string
		if c.Label != "" {
			aliases = []string{c.Label}
		}
		reg.RegisterCommand("/"+c.Name, commands.Command{
			Handler:     h.OnText,
			Description: c.Description,
			Hidden:      c.Hidden,
			Aliases:     aliases,
		})
	}
	for _, key := range []string{CallbackPick, CallbackSkip, CallbackCancel} {
		_ = reg.RegisterCallback(key, h.OnCallback)
	}
	reg.SetCallbackNotFound(h.OnStaleCallback)
	reg.SetTextFallback(h.OnText)
	return reg
}

// TelegramRunOptions wires routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := a.Registry()
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{UnknownMessage: a.handler.OnMedia})...)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), a.handler.OnLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			if rt.Bot != nil && rt.Bot.Me != nil {
				a.assistant.SetBotUsername(rt.Bot.Me.Username)
			}
			go func() {
				if err := metrics.Serve(ctx, a.cfg.Metrics.Listen); err != nil {
					logger.Error(ctx, logger.CompApp, "metrics.serve", slog.String("err", err.Error()))
				}
			}()
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
