package main

import (
	"fmt"
	"os"

	"aihub/aiservice/cmd/ragctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
