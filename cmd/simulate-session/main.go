package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/raidline/internal/simulate"
	"github.com/okian/raidline/pkg/logger"
)

// Default configuration constants.
const (
	defaultMembers    = 8
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	// Pick up RAIDLINE_ADMIN_TOKEN from .env before flag defaults resolve.
	_ = godotenv.Load()

	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		members    = flag.Int("members", defaultMembers, "Number of synthetic members")
		adminToken = flag.String("token", os.Getenv("RAIDLINE_ADMIN_TOKEN"), "Admin token for session control")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		closeAfter = flag.Bool("close", true, "Close the window after submitting")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:    *baseURL,
		Members:    *members,
		AdminToken: *adminToken,
		Timeout:    *timeout,
		Close:      *closeAfter,
		Verbose:    *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
