//go:build windows

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/sys/windows"
)

var openGLFallbackOnce sync.Once

const openGLFailureText = "No OpenGL driver is available (Hyper-V video and the Basic Display Adapter lack one), " +
	"so the Data Analysis Application window cannot open.\n\n" +
	"A console will open instead. Run datadesk --headless --help there for the file, sheet and SQL commands."

// handleOpenGLFailure swaps the GUI for a headless console pointed at the
// same service.
func handleOpenGLFailure(uiLog *uiLogger, serviceURL string) {
	openGLFallbackOnce.Do(func() {
		uiLog.Printf("opengl unavailable, starting console for %s", serviceURL)
		text, _ := windows.UTF16PtrFromString(openGLFailureText)
		title, _ := windows.UTF16PtrFromString(appTitle)
		_, _ = windows.MessageBox(0, text, title, windows.MB_ICONWARNING)
		if err := startFallbackConsole(serviceURL); err != nil {
			uiLog.Printf("console fallback: %v", err)
		}
		uiLog.Close()
		os.Exit(1)
	})
}

func startFallbackConsole(serviceURL string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	args := append([]string{"/k", filepath.Clean(exe)}, fallbackConsoleArgs(serviceURL)...)
	cmd := exec.Command("cmd.exe", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_CONSOLE}
	return cmd.Start()
}
