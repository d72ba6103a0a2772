package main

import (
	"os"

	"github.com/ggonsajang/comcard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
