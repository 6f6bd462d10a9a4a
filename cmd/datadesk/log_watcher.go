package main

import (
	"bytes"
	"io"
	"sync"
)

// openGLFailureMarkers are GLFW messages meaning no usable OpenGL driver.
var openGLFailureMarkers = [][]byte{
	[]byte("WGL: The driver does not appear to support OpenGL"),
	[]byte("APIUnavailable: WGL"),
	[]byte("GLX: No GLXFBConfigs returned"),
	[]byte("window creation error"),
}

// logWatcher copies log output to dst and calls onHit once, on its own
// goroutine, the first time a line looks like an OpenGL failure.
type logWatcher struct {
	dst   io.Writer
	once  sync.Once
	onHit func()
}

func newLogWatcher(dst io.Writer, onHit func()) io.Writer {
	if dst == nil {
		dst = io.Discard
	}
	return &logWatcher{dst: dst, onHit: onHit}
}

func (w *logWatcher) Write(p []byte) (int, error) {
	if w.onHit != nil && isOpenGLFailureLog(p) {
		w.once.Do(func() { go w.onHit() })
	}
	return w.dst.Write(p)
}

func isOpenGLFailureLog(p []byte) bool {
	for _, m := range openGLFailureMarkers {
		if bytes.Contains(p, m) {
			return true
		}
	}
	return false
}
