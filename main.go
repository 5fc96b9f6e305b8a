// Package main provides the entrypoint for twilio-fm-relay.
package main

import (
	"fmt"
	"os"

	"github.com/isometry/twilio-fm-relay/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
