package main

import (
	"github.com/joho/godotenv"

	"loxkit/internal/cli"
)

func main() {
	// Load .env file if it exists; it can set LOXKIT_* variables.
	_ = godotenv.Load()

	cli.Execute()
}
