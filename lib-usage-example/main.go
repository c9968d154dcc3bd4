package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/sw33tLie/mailhunt/pkg/hunt"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
)

func main() {
	// Usage: go run *.go -session ~/.mailhunt/session.json -email "larry@example.com" -sources youtube

	sessionFlag := flag.String("session", "", "Path to the session file")
	emailFlag := flag.String("email", "", "Email address to hunt")
	sourcesFlag := flag.String("sources", "", "Comma-separated sources (maps, youtube, calendar)")

	// Parse the command-line flags
	flag.Parse()

	if *sessionFlag == "" {
		fmt.Println("Session file is required. Please provide it using -session flag.")
		return
	}

	if *emailFlag == "" {
		fmt.Println("Email is required. Please provide it using -email flag.")
		return
	}

	sources, err := platforms.ParseSources(*sourcesFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	cfg := hunt.DefaultConfig()
	cfg.SessionPath = *sessionFlag

	hunter, err := hunt.NewHunter(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := hunter.Hunt(ctx, hunt.Query{Email: *emailFlag, Sources: sources})
	if err != nil {
		fmt.Printf("hunt failed (%s): %v\n", hunt.KindOf(err), err)
		return
	}

	for _, m := range res.Matches {
		out, _ := json.MarshalIndent(m, "", "  ")
		fmt.Println(string(out))
	}
}
