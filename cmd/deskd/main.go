package main

import (
	"os"

	"github.com/deskd/deskd/cmd/deskd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
