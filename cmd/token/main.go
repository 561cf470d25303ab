package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/auth"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
)

// Prints a bearer token for the API, signed with API_JWT_SECRET.
func main() {
	subject := flag.String("subject", "api-client", "client name stored in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 for no expiry")
	flag.Parse()

	token, err := auth.GenerateToken(env.MustGetEnvString("API_JWT_SECRET"), *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
