package main

import (
	"os"

	"github.com/wonny/kis-go/cmd/kis/commands"
)

// main is the entry point for the KIS CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/kis [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
