package main

import (
	"os"

	"github.com/caribou-health/ruleflow/cmd/ruleflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
