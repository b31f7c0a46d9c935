package main

import (
	"fmt"
	"os"

	"github.com/orthopteroid/ganesha-xl/cmd"
)

func main() {
	rc := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rc.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
