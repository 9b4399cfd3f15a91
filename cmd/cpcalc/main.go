package main

import (
	"os"

	"github.com/couchcryptid/cp-performance/cmd/cpcalc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
