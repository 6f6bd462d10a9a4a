//go:build windows

package main

import (
	"datadesk/internal/logger"
	"datadesk/internal/platform/autostart"
)

// runAsService hands control to the service manager when datadeskd was
// started by it. Connection defaults come from the .env beside the binary.
func runAsService() bool {
	isService, err := autostart.IsWindowsService()
	if err != nil || !isService {
		return false
	}

	envFile := serviceEnvFile()
	loadDotEnv(envFile)
	if err := autostart.RunService(windowsServiceName, &serverApp{}); err != nil {
		logger.NewStderr().Error("windows service failed (env file "+envFile+")", err)
	}
	return true
}
