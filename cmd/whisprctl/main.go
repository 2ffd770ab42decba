package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/b2tsrl/openwhispr/internal/whisprctl"
)

func main() {
	// Optional .env in the working directory, loaded before flag
	// defaults are read from the environment.
	_ = godotenv.Load()

	if err := whisprctl.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "whisprctl: %v\n", err)
		os.Exit(1)
	}
}
