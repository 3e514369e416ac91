package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/arnavshah/position-helper-go/pkg/auth"
	"github.com/arnavshah/position-helper-go/pkg/config"
)

// keygen prints a fresh JWT_SECRET, the bcrypt hash of a password and a sample session token
func main() {
	config.LoadDotEnv()

	password := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		fmt.Println("Usage: go run ./cmd/keygen <admin password>  (or set ADMIN_PASSWORD in .env)")
		os.Exit(1)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Printf("Error: could not read random bytes: %v\n", err)
		os.Exit(1)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Error: could not hash password: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewManager(secret, 24*time.Hour, nil).CreateToken()
	if err != nil {
		fmt.Printf("Error: could not sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Printf("Password hash:\n%s\n", hash)
	fmt.Printf("Sample session token (24h):\n%s\n", token)
}
