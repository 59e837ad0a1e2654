// Command token mints a bearer token for local testing against the API.
//
//	go run ./cmd/token -user 42
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"url-shortener/internal/auth"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type tokenConfig struct {
	Secret string        `env:"JWT_SECRET,required"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"url-shortener"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

func main() {
	userID := flag.Uint("user", 0, "user id to place in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, overrides JWT_TTL")
	flag.Parse()

	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "usage: token -user <id> [-ttl 1h]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	var cfg tokenConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to load token configuration: %v", err)
	}
	if *ttl > 0 {
		cfg.TTL = *ttl
	}

	tokens, err := auth.NewTokenService(cfg.Secret, cfg.Issuer, cfg.TTL)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	token, err := tokens.Sign(*userID)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
