package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/authtoken"
	"github.com/agritrace/agritrace-backend/internal/platform/envutil"
)

// tokengen mints an API token for a stakeholder address. Tokens only
// identify the caller; roles are resolved server-side on every call.
func main() {
	address := flag.String("address", "", "stakeholder address to mint a token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -address <addr> [-ttl 24h]")
		os.Exit(2)
	}

	secret := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	token, err := authtoken.Sign([]byte(secret), domain.NormalizeAddress(*address), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
