package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/af-corp/aegis-docai/internal/auth"
)

func main() {
	env := flag.String("env", "prod", "environment prefix")
	flag.Parse()

	rawKey, err := auth.GenerateKey(*env)
	if err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}

	fmt.Println("=== DocAI API Key Generated ===")
	fmt.Println()
	fmt.Printf("  Key Prefix:  %s\n", auth.KeyPrefix(rawKey))
	fmt.Printf("  SHA-256:     %s\n", auth.HashKey(rawKey))
	fmt.Println()
	fmt.Println("  Set auth.api_key_sha256 (or DOCAI_API_KEY_SHA256) to the hash above.")
	fmt.Println("  API Key (save this, it will NOT be shown again):")
	fmt.Printf("  %s\n", rawKey)
	fmt.Println()
	fmt.Println("===============================")
}
