//go:build !windows

package main

import (
	"fmt"
	"os"
)

func uiStartupGuard() error {
	return nil
}

func uiStartupAlert(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
