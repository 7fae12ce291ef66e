package main

import (
	"os"

	"github.com/crmarques/vaultapi/internal/cli"
)

func main() {
	if err := cli.Execute(cli.Dependencies{}); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
