// Command devtoken mints access tokens signed with the configured JWT secret
// so the API can be exercised locally without the store backend's login flow.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/config"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
)

func main() {
	userID := flag.String("user", "1", "User ID to put in the token")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if config.IsProduction() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens in production")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	token, err := service.NewTokenService(cfg.JWTSecret).GenerateToken(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
