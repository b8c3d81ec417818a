package main

import (
	"os"

	"github.com/ostrisops/aikit/cmd/aikit/app"
)

func main() {
	if err := app.NewAikitCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
