package main

import (
	"os"
)

const windowsServiceName = "datadeskd"

func main() {
	if runAsService() {
		return
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
