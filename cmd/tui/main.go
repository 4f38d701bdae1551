package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"property-listing/internal/client"
	"property-listing/internal/core/config"
	"property-listing/internal/core/logger"
	"property-listing/internal/favorites"
	"property-listing/internal/identity"
	"property-listing/internal/tui"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	// 终端归 TUI，日志只写文件
	log, cleanup := logger.NewFileOnly(cfg.Log, "logs/tui.log")
	defer cleanup()

	if cfg.Client.Email == "" || cfg.Client.Password == "" {
		fmt.Fprintln(os.Stderr, "client.email / client.password required (APP_CLIENT_EMAIL, APP_CLIENT_PASSWORD)")
		os.Exit(2)
	}

	c := client.New(cfg.Client.BaseURL,
		client.WithTimeout(cfg.Client.Timeout()),
		client.WithLogger(log.Named("client")),
	)
	session := identity.NewSession(c, c, log.Named("session"))
	defer session.Close()

	current := func() string {
		if u := session.CurrentUser(); u != nil {
			return u.ID
		}
		return ""
	}
	rec := favorites.New(c.Favorites(current), c, favorites.WithLogger(log.Named("favorites")))
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := rec.Bind(ctx, session); err != nil && ctx.Err() == nil {
			log.Warn("favorites bind stopped", zap.Error(err))
		}
	}()

	user, err := session.SignIn(ctx, cfg.Client.Email, cfg.Client.Password)
	if err != nil {
		log.Error("sign in failed", zap.String("email", cfg.Client.Email), zap.Error(err))
		fmt.Fprintf(os.Stderr, "sign in failed: %v\n", err)
		os.Exit(1)
	}
	log.Info("signed in", zap.String("userId", user.ID), zap.String("base", cfg.Client.BaseURL))

	updates, unsubscribe := rec.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(tui.New(c, rec, user.ID, updates), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("tui exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
	_ = session.SignOut(context.Background())
}
