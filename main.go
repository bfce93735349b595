package main

import (
	"os"

	"github.com/martijn/hookcmd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
