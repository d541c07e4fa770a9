package main

import (
	"os"

	"kharcha/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
