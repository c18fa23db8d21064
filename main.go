package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/repoflow/repoflow/cmd"
)

func main() {
	// Pick up GITHUB_TOKEN and provider keys from a local .env if present.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
