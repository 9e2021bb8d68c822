package main

import (
	"os"

	"github.com/AaronLay10/SentientSignals/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
