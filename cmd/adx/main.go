package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/brynbeaudry/loserbot9000-sub002/cmd/adx/cmd"
)

func main() {
	// Optional .env in the working directory; missing files are fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
