package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/config"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/store"
)

const usage = "expected one of 'prune-sessions', 'list-sessions', 'check-email' or 'ping' subcommands"

func main() {
	pruneCmd := flag.NewFlagSet("prune-sessions", flag.ExitOnError)
	olderThan := pruneCmd.Duration("older-than", 0, "Remove sessions idle for longer than this (default SESSION_MAX_AGE)")

	listCmd := flag.NewFlagSet("list-sessions", flag.ExitOnError)
	limit := listCmd.Int("limit", 20, "Maximum number of sessions to show")

	checkCmd := flag.NewFlagSet("check-email", flag.ExitOnError)
	email := checkCmd.String("email", "", "Address to check")

	pingCmd := flag.NewFlagSet("ping", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "prune-sessions":
		pruneCmd.Parse(os.Args[2:])
		cutoff := cfg.SessionMaxAge
		if *olderThan > 0 {
			cutoff = *olderThan
		}
		pruneSessions(ctx, cfg, cutoff)
	case "list-sessions":
		listCmd.Parse(os.Args[2:])
		listSessions(ctx, cfg, *limit)
	case "check-email":
		checkCmd.Parse(os.Args[2:])
		if *email == "" {
			fmt.Println("email is required")
			checkCmd.PrintDefaults()
			os.Exit(1)
		}
		checkEmail(ctx, cfg, *email)
	case "ping":
		pingCmd.Parse(os.Args[2:])
		ping(ctx, cfg)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) *store.Store {
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure tables exist if running cli before server
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func pruneSessions(ctx context.Context, cfg *config.Config, olderThan time.Duration) {
	db := openStore(cfg)
	defer db.Close()

	n, _, err := db.PruneSessions(ctx, time.Now().Add(-olderThan))
	if err != nil {
		log.Fatalf("Failed to prune sessions: %v", err)
	}
	fmt.Printf("Removed %d session(s) idle for more than %s.\n", n, olderThan)
}

func listSessions(ctx context.Context, cfg *config.Config, limit int) {
	db := openStore(cfg)
	defer db.Close()

	total, err := db.CountSessions(ctx)
	if err != nil {
		log.Fatalf("Failed to count sessions: %v", err)
	}
	rows, err := db.ListSessions(ctx, limit)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tUSERNAME\tLAST SEEN\tUSER AGENT")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.UserID, row.Username, row.UpdatedAt.Format(time.DateTime), row.UserAgent)
	}
	tw.Flush()
	fmt.Printf("%d of %d session(s).\n", len(rows), total)
}

func checkEmail(ctx context.Context, cfg *config.Config, email string) {
	if !apiclient.LooksLikeEmail(email) {
		fmt.Printf("%s is not a valid email address.\n", email)
		os.Exit(1)
	}
	v := apiclient.NewEmailValidator(cfg.EmailValidationURL, cfg.EmailValidationKey, cfg.RequestTimeout)
	check, err := v.Check(ctx, email)
	if err != nil {
		log.Fatalf("Email validation service failed: %v", err)
	}
	fmt.Printf("format_valid=%t mx_found=%t smtp_check=%t\n", check.FormatValid, check.MXFound, check.SMTPCheck)
	if !check.Deliverable() {
		os.Exit(1)
	}
}

func ping(ctx context.Context, cfg *config.Config) {
	api, err := apiclient.New(cfg.APIBaseURL, apiclient.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		log.Fatalf("Invalid API base URL: %v", err)
	}
	start := time.Now()
	if err := api.Ping(ctx); err != nil {
		log.Fatalf("API at %s is not reachable: %v", cfg.APIBaseURL, err)
	}
	fmt.Printf("API at %s answered in %s.\n", cfg.APIBaseURL, time.Since(start).Round(time.Millisecond))
}
