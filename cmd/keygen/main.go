package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"aidanwoods.dev/go-paseto"

	"github.com/dealflow/crm/pkg/crypto"
)

// Prints a fresh PASETO v4 key pair and a secret for sealing stored
// refresh tokens, ready to paste into .env
func main() {
	secretKey := paseto.NewV4AsymmetricSecretKey()
	publicKey := secretKey.Public()

	sealingSecret, err := crypto.RandomToken(32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generated PASETO v4 key pair")
	fmt.Println()
	fmt.Println("Private Key (keep this secret!):")
	fmt.Println(base64.StdEncoding.EncodeToString(secretKey.ExportBytes()))
	fmt.Println()
	fmt.Println("Public Key:")
	fmt.Println(base64.StdEncoding.EncodeToString(publicKey.ExportBytes()))
	fmt.Println()
	fmt.Println("SECRET_KEY:")
	fmt.Println(sealingSecret)
}
