package main

import (
	"github.com/joho/godotenv"
	"newsvec/internal/cli"
)

func main() {
	// API keys may live in a local .env; absence is fine.
	_ = godotenv.Load()

	cli.Execute()
}
