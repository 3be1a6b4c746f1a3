// Command client is the terminal front end for the contact server.
package main

import (
	"os"

	"github.com/atinyakov/ContactKeeper/internal/client"
)

var (
	version   string
	buildDate string
)

func main() {
	root := newRootCmd(os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		client.Failure(os.Stderr, err)
		os.Exit(1)
	}
}
