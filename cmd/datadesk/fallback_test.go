package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackConsoleArgs(t *testing.T) {
	assert.Equal(t, []string{"--headless", "--show", "--health"}, fallbackConsoleArgs(""))
	assert.Equal(t,
		[]string{"--headless", "--show", "--health", "--service-url", "http://10.0.0.5:8000"},
		fallbackConsoleArgs("http://10.0.0.5:8000"))
}

func TestFallbackConsoleArgsAreHeadless(t *testing.T) {
	assert.True(t, hasHeadlessFlag(fallbackConsoleArgs("http://127.0.0.1:8000")))
}

func TestServiceGuardPointsAtDaemon(t *testing.T) {
	assert.Contains(t, errUIAsService.Error(), "datadeskd service install")
}
