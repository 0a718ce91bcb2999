// Command token issues a bearer token for local testing against the API.
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/token -sub <id> -role manager -ttl 8h
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/YusovID/visit-planner/internal/auth"
	"github.com/YusovID/visit-planner/internal/config"
	"github.com/YusovID/visit-planner/internal/domain"
)

func main() {
	sub := flag.String("sub", "", "actor id (representative, manager or admin id)")
	role := flag.String("role", string(domain.RoleRepresentative), "admin, manager or representative")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		log.Fatal("-sub is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	authenticator := auth.New(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	token, err := authenticator.Issue(domain.Actor{ID: *sub, Role: domain.Role(*role)}, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	// round-trip so an unknown role fails here rather than on the first request
	if _, err := authenticator.Parse(token); err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
