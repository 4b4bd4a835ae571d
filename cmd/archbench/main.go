package main

import (
	"fmt"
	"os"

	"github.com/shaynamir/archbench/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
