package main

import (
	"os"

	"github.com/bnema/evo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
