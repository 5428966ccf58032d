// Command jyotctl is the operator CLI for JyotAI. It applies migrations,
// inspects and changes user plans, and prints the numerology and
// tip-of-the-day content the API serves.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
