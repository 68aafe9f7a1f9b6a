package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// optional .env for OPUSCAT_DB_PATH and friends
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
