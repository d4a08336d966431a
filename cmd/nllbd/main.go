package main

import (
	"os"

	"nllbd/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
