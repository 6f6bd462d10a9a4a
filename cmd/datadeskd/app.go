package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"datadesk/internal/api"
	"datadesk/internal/config"
	"datadesk/internal/db"
	"datadesk/internal/files"
	"datadesk/internal/logger"
	"datadesk/internal/platform/autostart"
	"datadesk/internal/secrets"
	"datadesk/internal/sheets"

	"github.com/spf13/pflag"
)

// serverApp runs the HTTP service either in the foreground or under the
// Windows service manager.
type serverApp struct {
	flags  *pflag.FlagSet
	cfg    config.Config
	logSvc logger.LoggerService
	srv    *http.Server
	errCh  chan error
}

func (a *serverApp) Start() error {
	bootstrapLog := logger.NewStderr()

	cfg, err := config.LoadWithFlags(a.flags)
	if err != nil {
		bootstrapLog.Error("failed to load config", err)
		return err
	}
	a.cfg = cfg

	logSvc, err := logger.New(cfg)
	if err != nil {
		bootstrapLog.Error("logger init failed; using stderr", err)
		logSvc = logger.NewWriter(os.Stderr, cfg.Debug)
	}
	a.logSvc = logSvc

	reader, err := files.NewReader(files.Options{
		DataFolders: cfg.Files.DataFolders,
		MaxBytes:    cfg.Files.MaxFileBytes,
		ExcelSheet:  cfg.Files.ExcelSheet,
	})
	if err != nil {
		logSvc.Error("config validation error", err)
		a.Stop(context.Background())
		return err
	}

	sheetOpt := sheets.OptionsFrom(cfg.Sheets)
	sheetOpt.Logger = logSvc

	srv, err := api.NewServer(cfg, api.ServerDeps{
		Logger:     logSvc,
		Files:      reader,
		Sheets:     sheets.New(sheetOpt),
		SQL:        db.NewClient(db.OptionsFrom(cfg.SQL)),
		DBPassword: passwordSource(logSvc),
	})
	if err != nil {
		logSvc.Error("config validation error", err)
		a.Stop(context.Background())
		return err
	}
	a.srv = srv

	a.errCh = make(chan error, 1)
	go func() {
		a.errCh <- srv.ListenAndServe()
	}()

	logger.Infof(logSvc, "datadeskd listening on %s", srv.Addr)
	if len(cfg.Files.DataFolders) == 0 {
		logSvc.Warn("no data folders configured; any readable file path is accepted")
	}
	if cfg.SQL.ReadOnly {
		logSvc.Info("read-only SQL guard enabled")
	}
	return nil
}

func (a *serverApp) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.srv != nil {
		_ = a.srv.Shutdown(ctx)
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
}

func (a *serverApp) Errors() <-chan error {
	return a.errCh
}

func (a *serverApp) Logger() autostart.Logger {
	return a.logSvc
}

// passwordSource resolves the fallback database password: DB_PASSWORD
// first, then the stored secret.
func passwordSource(log logger.LoggerService) func() string {
	return func() string {
		if p := config.DBPasswordEnv(); p != "" {
			return p
		}
		b, err := secrets.Get(secrets.DBPasswordKey)
		if err != nil {
			if !errors.Is(err, secrets.ErrNotFound) && log != nil {
				log.Error("failed to load db password", err)
			}
			return ""
		}
		return string(b)
	}
}
