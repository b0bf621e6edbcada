// cmd/main.go is the application entry point.
// The smartevent binary runs the HTTP API, the notification worker and
// the schema migrations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
