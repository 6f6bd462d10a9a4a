package main

import (
	"fmt"
	"log"
	"os"

	"datadesk/internal/config"

	"fyne.io/fyne/v2/app"
)

const (
	appID    = "io.datadesk.desktop"
	appTitle = "Data Analysis Application"
)

func main() {
	uiLog := newUILogger()

	if handled, err := runHeadless(os.Args[1:], os.Stdout, uiLog); handled {
		if err != nil {
			uiLog.Printf("headless error: %v", err)
			_, _ = fmt.Fprintln(os.Stderr, "error:", err)
			uiLog.Close()
			os.Exit(1)
		}
		uiLog.Close()
		return
	}
	defer uiLog.Close()

	if err := uiStartupGuard(); err != nil {
		uiLog.Printf("startup guard: %v", err)
		uiStartupAlert(err)
		return
	}

	cfg, cfgErr := config.LoadOrDefault()
	if cfgErr != nil {
		uiLog.Printf("config: %v", cfgErr)
		cfg = config.Default()
	}

	// GLFW reports driver failures through the standard logger.
	log.SetOutput(newLogWatcher(uiLog.Writer(), func() {
		handleOpenGLFailure(uiLog, cfg.ServiceURL)
	}))

	a := app.NewWithID(appID)
	d := newDesk(a, cfg, uiLog)
	if cfgErr != nil {
		d.setStatus("Error loading config: " + cfgErr.Error())
	}

	uiLog.Printf("ui start, service %s", cfg.ServiceURL)
	d.win.ShowAndRun()
}
