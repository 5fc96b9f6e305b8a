// Package main provides the Lambda bootstrap for twilio-fm-relay.
package main

import (
	"fmt"
	"os"

	"github.com/isometry/twilio-fm-relay/cmd"
)

func main() {
	root := cmd.New()
	root.SetArgs(append([]string{"lambda"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
