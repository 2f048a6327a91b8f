package main

import (
	"os"

	memgatecmder "github.com/memgatehq/memgate/cmd/memgate"
)

func main() {
	cmd := memgatecmder.NewMemgateCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
