package main

import "errors"

var errUIAsService = errors.New("datadesk is the desktop client and cannot run as a Windows service or in a non-interactive session. " +
	"Install the background service with \"datadeskd service install\" and launch datadesk.exe from the desktop")

// fallbackConsoleArgs are the arguments for the console that replaces the GUI
// when no OpenGL driver is available. The console checks the same service
// the GUI would have used.
func fallbackConsoleArgs(serviceURL string) []string {
	args := []string{"--headless", "--show", "--health"}
	if serviceURL != "" {
		args = append(args, "--service-url", serviceURL)
	}
	return args
}
