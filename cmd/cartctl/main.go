package main

import (
	"os"

	"github.com/PocketPalCo/voicecart/cmd/cartctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
