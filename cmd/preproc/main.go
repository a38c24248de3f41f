package main

import (
	"log/slog"
	"os"

	"github.com/moviedex/preproc/cmd/preproc/commands"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	commands.Execute()
}
