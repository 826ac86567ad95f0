package main

import (
	"os"

	"github.com/abhisek/cassini/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
