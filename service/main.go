// Package main provides the container entrypoint for twilio-fm-relay.
package main

import (
	"fmt"
	"os"

	"github.com/isometry/twilio-fm-relay/cmd"
)

func main() {
	root := cmd.New()
	root.SetArgs(append([]string{"service"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
