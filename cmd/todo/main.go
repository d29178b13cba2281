package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Tomlord1122/todos-api/internal/client"
	"github.com/Tomlord1122/todos-api/internal/tui"
)

const defaultAddr = "http://localhost:8080/api/v1"

func main() {
	addr := flag.String("addr", envOr("TODO_API_URL", defaultAddr), "base URL of the todos API")
	flag.Parse()

	c, err := client.New(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := tui.Run(c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
