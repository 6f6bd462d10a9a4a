//go:build windows

package main

import (
	"fmt"
	"os"

	"datadesk/internal/platform/autostart"
	"golang.org/x/sys/windows"
)

func uiStartupGuard() error {
	if isService, err := autostart.IsWindowsService(); err == nil && isService {
		return errUIAsService
	}
	return nil
}

// uiStartupAlert shows err in a message box; a service session has no
// desktop, so stderr gets a copy.
func uiStartupAlert(err error) {
	if err == nil {
		return
	}
	text, _ := windows.UTF16PtrFromString(err.Error())
	title, _ := windows.UTF16PtrFromString(appTitle)
	_, _ = windows.MessageBox(0, text, title, windows.MB_ICONERROR|windows.MB_SERVICE_NOTIFICATION)
	fmt.Fprintln(os.Stderr, err)
}
