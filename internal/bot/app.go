// Package bot wires the dialog engine, storage and telegram runtime
// into a runnable application.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/parkops/shiftbot/core/bootstrap"
	"github.com/parkops/shiftbot/core/logger"
	coretelegram "github.com/parkops/shiftbot/core/telegram"
	"github.com/parkops/shiftbot/core/telegram/commands"
	"github.com/parkops/shiftbot/core/telegram/dialog"
	"github.com/parkops/shiftbot/core/telegram/middleware"
	"github.com/parkops/shiftbot/core/telegram/router"
	"github.com/parkops/shiftbot/core/telegram/state"
	"github.com/parkops/shiftbot/core/telegram/ui"
	"github.com/parkops/shiftbot/internal/flows"
	"github.com/parkops/shiftbot/internal/places"
	"github.com/parkops/shiftbot/internal/storage"
)

// App holds the bot's long-lived components.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	repo     *storage.Repo
	places   *places.Directory
	sessions state.Manager
	engine   *dialog.Engine
	sender   *deferredSender
}

var _ ui.FallbackProvider = (*App)(nil)

// New bootstraps infrastructure and assembles the application.
func New(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	repo := storage.New(res.DB)
	dir, err := places.Load(logger.Background(), repo)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	sessions, err := state.NewManager(cfg.Session)
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("bot: session backend: %w", err)
	}

	sender := &deferredSender{}
	engine, err := dialog.New(dialog.Options{
		Store: sessions,
		Flows: flows.All(flows.Deps{
			Sender: sender,
			Store:  repo,
			Places: dir,
		}),
		PlaceTitles: dir.Titles,
		AdminID:     cfg.Telegram.AdminID,
	})
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		db:       res.DB,
		repo:     repo,
		places:   dir,
		sessions: sessions,
		engine:   engine,
		sender:   sender,
	}, nil
}

// TelegramRunOptions builds the telegram runtime configuration.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	registerFallbacks(reg, a)

	access := &middleware.AccessOptions{
		Checker:  &employeeChecker{repo: a.repo, adminID: a.cfg.Telegram.AdminID},
		OnReject: a.accessDenied,
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.adminOnly,
		Access:        access,
	})
	routes = append(routes, router.TextRoutes(a.engine, reg, router.TextOptions{
		UnknownText:  a.UnknownText(),
		UnknownPhoto: a.UnknownPhoto(),
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: a.UnknownCallback(),
	}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.sender.bind(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.startCommand,
		Description: "Приветствие и список команд",
	})
	reg.RegisterCommand("/start_shift", commands.Command{
		Handler:     a.flowCommand("start_shift"),
		Description: "Открытие смены",
	})
	reg.RegisterCommand("/finish_shift", commands.Command{
		Handler:     a.flowCommand("finish_shift"),
		Description: "Закрытие смены",
	})
	reg.RegisterCommand("/encashment", commands.Command{
		Handler:     a.flowCommand("encashment"),
		Description: "Инкассация",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.statsCommand,
		Description: "Статистика по сменам",
		AdminOnly:   true,
	})
}

func registerFallbacks(reg *coretelegram.Registry, p ui.FallbackProvider) {
	reg.SetTextFallback(p.UnknownText())
	reg.SetCallbackNotFound(p.UnknownCallback())
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	for _, key := range dialog.Uniques() {
		if err := reg.RegisterCallback(key, a.engine.HandleCallback); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(cbStatsWeek, a.statsPeriod(7, "за неделю")); err != nil {
		return err
	}
	return reg.RegisterCallback(cbStatsMonth, a.statsPeriod(30, "за месяц"))
}
