// Package app 把配置、存储、缓存和服务装配起来，cmd/api 与 cmd/admin 共用
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"property-listing/internal/core/auth"
	"property-listing/internal/core/cache"
	"property-listing/internal/core/config"
	"property-listing/internal/core/database"
	"property-listing/internal/domain"
	"property-listing/internal/repo"
	"property-listing/internal/repo/firestore"
	"property-listing/internal/service"
	"property-listing/internal/transport/http/router"
)

type favoriteStore interface {
	domain.FavoriteRepository
	service.FavoriteCleaner
}

type stores struct {
	users domain.UserRepository
	props domain.PropertyRepository
	favs  favoriteStore
}

type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	JWT   *auth.JWTer
	Cache *cache.Cache

	Users *service.UserService
	Props *service.PropertyService
	Favs  *service.FavoriteService
	Dash  *service.DashboardService

	closers []func()
}

func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log, JWT: auth.FromConfig(cfg.JWT)}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Cache = cache.NewFromConfig(cfg.Redis)
	if a.Cache != nil {
		a.closers = append(a.closers, func() { _ = a.Cache.Close() })
		if err := a.Cache.Ping(ctx); err != nil {
			// redis 挂了不影响启动，回源即可
			log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	a.Users = service.NewUserService(st.users, a.JWT, log.Named("users"))
	a.Props = service.NewPropertyService(st.props,
		service.WithCatalogCache(a.Cache, cfg.Redis.CatalogTTL()),
		service.WithListing(cfg.Listing),
		service.WithFavoriteCleaner(st.favs),
		service.WithPropertyLogger(log.Named("properties")),
	)
	a.Favs = service.NewFavoriteService(st.favs, a.Props, log.Named("favorites"))
	a.Dash = service.NewDashboardService(a.Props, a.Favs, log.Named("dashboard"))

	if cfg.Seed.AdminEmail != "" {
		if _, err := a.Users.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	switch a.Cfg.Store.Driver {
	case "firestore":
		fs, err := firestore.Open(ctx, a.Cfg.Store.FirestoreProject, a.Cfg.Store.FirestoreCredsFile)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, fs.Close)
		a.Log.Info("firestore connected", zap.String("project", a.Cfg.Store.FirestoreProject))
		return stores{users: fs.Users(), props: fs.Properties(), favs: fs.Favorites()}, nil
	default:
		db, err := openDB(a.Cfg.DB, a.Log)
		if err != nil {
			return stores{}, err
		}
		if sqlDB, e := db.DB(); e == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		a.Log.Info("database connected", zap.String("driver", a.Cfg.DB.Driver))
		if a.Cfg.DB.AutoMigrate {
			if err := database.Migrate(db, repo.Models()...); err != nil {
				return stores{}, fmt.Errorf("automigrate: %w", err)
			}
			a.Log.Info("automigrate done")
		}
		return stores{users: repo.NewUserRepo(db), props: repo.NewPropertyRepo(db), favs: repo.NewFavoriteRepo(db)}, nil
	}
}

func openDB(c config.DB, log *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             c.Driver,
		DSN:                c.DSN,
		Username:           c.Username,
		Password:           c.Password,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
		LogLevel:           c.LogLevel,
		Log:                log.Named("gorm"),
	})
}

// Deps 给 router 用
func (a *App) Deps() router.Deps {
	mode := "release"
	if a.Cfg.App.Env == "local" || a.Cfg.App.Env == "dev" {
		mode = "debug"
	}
	return router.Deps{
		Log:   a.Log,
		JWT:   a.JWT,
		Mode:  mode,
		Users: a.Users,
		Props: a.Props,
		Favs:  a.Favs,
		Dash:  a.Dash,
	}
}

// Close 逆序释放
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
