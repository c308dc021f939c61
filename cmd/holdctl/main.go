package main

import (
	"os"

	"brokerage/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
