/*
Package main is dashcli, a terminal client for the userdash API.
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"userdash/internal/client"
)

func main() {
	server := flag.String("server", envOr("USERDASH_SERVER", "http://localhost:5000"), "API base URL")
	tokenPath := flag.String("token-file", "", "where the session token is kept (default: user config dir)")
	flag.Parse()

	tokens, err := client.DefaultTokenFile()
	if *tokenPath != "" {
		tokens, err = client.TokenFile{Path: *tokenPath}, nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &client.App{
		Client: client.New(*server, nil),
		Tokens: tokens,
		In:     bufio.NewReader(os.Stdin),
		Out:    os.Stdout,
	}

	if err := app.Run(ctx, flag.Args()); err != nil {
		if !errors.Is(err, client.ErrUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
