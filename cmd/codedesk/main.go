// codedesk is the desktop coding assistant backend: a multi-agent
// orchestration engine behind a small HTTP API and an interactive CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
