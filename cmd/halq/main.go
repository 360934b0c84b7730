package main

import (
	"os"

	"github.com/wonny/halq/cmd/halq/commands"
)

// main is the entry point for the halq CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/halq [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
