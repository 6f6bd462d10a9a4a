package main

import (
	"bytes"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogWatcherFiresOnce(t *testing.T) {
	var buf bytes.Buffer
	var hits atomic.Int32
	done := make(chan struct{}, 2)

	l := log.New(newLogWatcher(&buf, func() {
		hits.Add(1)
		done <- struct{}{}
	}), "", 0)

	l.Println("starting")
	l.Println("Fyne error: window creation error")
	l.Println("APIUnavailable: WGL: The driver does not appear to support OpenGL")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 1, hits.Load())
	assert.Contains(t, buf.String(), "starting")
	assert.Contains(t, buf.String(), "window creation error")
}

func TestIsOpenGLFailureLog(t *testing.T) {
	assert.False(t, isOpenGLFailureLog(nil))
	assert.False(t, isOpenGLFailureLog([]byte("loaded 3 rows")))
	assert.True(t, isOpenGLFailureLog([]byte("GLX: No GLXFBConfigs returned")))
}
