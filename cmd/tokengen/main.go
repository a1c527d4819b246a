// Package main mints service tokens and issuer keys for local use. Tokens
// signed with the dev key are rejected anywhere SERVICE_TOKEN_KEY is set.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"trustscore/internal/credential/signature"
	jwttoken "trustscore/internal/jwt_token"
	"trustscore/internal/platform/config"
	"trustscore/pkg/requestcontext"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Role      string            `json:"role"`
	Subject   string            `json:"subject"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

type keyOutput struct {
	DID        string `json:"did"`
	PrivateKey string `json:"private_key"`
}

func main() {
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	role := tokenCmd.String("role", string(requestcontext.RoleAdmin), "Token role: admin, issuer or ledger")
	subject := tokenCmd.String("sub", "", "Subject; issuer tokens need the issuer DID")
	key := tokenCmd.String("key", envOr("SERVICE_TOKEN_KEY", config.DevServiceTokenKey), "HMAC signing key")
	issuer := tokenCmd.String("iss", "trustscore", "Token issuer claim")
	ttl := tokenCmd.Duration("ttl", 24*time.Hour, "Token time-to-live")
	tokenJSON := tokenCmd.Bool("json", false, "Output as JSON")

	keyCmd := flag.NewFlagSet("keygen", flag.ExitOnError)
	keyJSON := keyCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "token":
		_ = tokenCmd.Parse(os.Args[2:])
		err = generateToken(*key, *issuer, requestcontext.ActorRole(*role), *subject, *ttl, *tokenJSON)
	case "keygen":
		_ = keyCmd.Parse(os.Args[2:])
		err = generateKey(*keyJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - service tokens and issuer keys for trustscore

Usage:
  tokengen token  [-role admin|issuer|ledger] [-sub SUBJECT] [-ttl 24h] [-key KEY] [-json]
  tokengen keygen [-json]

Examples:
  tokengen token -role admin -sub ops
  tokengen token -role issuer -sub did:key:z6Mk...
  tokengen keygen -json`)
}

func generateToken(key, iss string, role requestcontext.ActorRole, subject string, ttl time.Duration, jsonOutput bool) error {
	if role == requestcontext.RoleIssuer && subject == "" {
		return fmt.Errorf("issuer tokens need -sub set to the issuer DID")
	}
	if subject == "" {
		subject = string(role)
	}
	svc := jwttoken.NewJWTService(key, iss, ttl)
	token, err := svc.GenerateToken(role, subject, time.Now())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(tokenOutput{
			Token:     token,
			Role:      string(role),
			Subject:   subject,
			ExpiresIn: ttl.String(),
			Usage:     map[string]string{"header": "Authorization: Bearer " + token},
		})
	}
	fmt.Printf("Role:       %s\n", role)
	fmt.Printf("Subject:    %s\n", subject)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Printf("\n%s\n", token)
	return nil
}

func generateKey(jsonOutput bool) error {
	signer, err := signature.GenerateLocalSigner()
	if err != nil {
		return err
	}
	out := keyOutput{
		DID:        string(signer.DID()),
		PrivateKey: hex.EncodeToString(signer.PrivateKey()),
	}
	if jsonOutput {
		return printJSON(out)
	}
	fmt.Printf("DID:         %s\n", out.DID)
	fmt.Printf("Private Key: %s\n", out.PrivateKey)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
