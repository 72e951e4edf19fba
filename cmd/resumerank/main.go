package main

import (
	"os"
)

func main() {
	if err := newRootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}
