package main

import (
	"fmt"
	"os"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/internal/cli"
)

func main() {
	exitCode := filetree.ExitCodeSuccess
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			exitCode = filetree.ExitCodeGeneralError
		}
		os.Exit(exitCode)
	}()

	if err := cli.Execute(); err != nil {
		exitCode = filetree.ExitCodeForError(err)
	}
}
