//go:build !windows

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

var openGLFallbackOnce sync.Once

func handleOpenGLFailure(uiLog *uiLogger, serviceURL string) {
	openGLFallbackOnce.Do(func() {
		uiLog.Printf("opengl unavailable")
		fmt.Fprintf(os.Stderr, "OpenGL is not available; the GUI cannot start. Try: datadesk %s\n",
			strings.Join(fallbackConsoleArgs(serviceURL), " "))
		uiLog.Close()
		os.Exit(1)
	})
}
