package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pestguard/fieldops/internal/api"
	"github.com/pestguard/fieldops/internal/app"
	"github.com/pestguard/fieldops/internal/credential"
	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	setToken := flag.Bool("set-token", false, "store the API token from FIELDOPS_TOKEN and exit")
	flag.Parse()

	if *setToken {
		token := os.Getenv("FIELDOPS_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "FIELDOPS_TOKEN is not set")
			os.Exit(1)
		}
		if err := credential.Set(credential.TokenKey, token); err != nil {
			fmt.Fprintf(os.Stderr, "storing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("token stored")
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fieldops: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.API.BaseURL == "" {
		return fmt.Errorf(
			"api.base_url is not set; edit %s and point it at the platform API",
			configPath,
		)
	}

	logCloser, err := logging.Setup(logging.DefaultLogPath())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	// Token lookup is deferred to request time so a token stored while
	// the app runs takes effect without a restart.
	tokenSource := func() (string, error) {
		return credential.Get(credential.TokenKey)
	}

	client := api.NewClient(
		cfg.API.BaseURL,
		tokenSource,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	dbPath, err := defaultCachePath()
	if err != nil {
		return err
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	root := app.New(
		s,
		client,
		time.Duration(cfg.Sync.AppointmentPollSec)*time.Second,
		time.Duration(cfg.Sync.NotificationPollSec)*time.Second,
	)

	logging.Logger.Info().
		Str("config", configPath).
		Str("cache", dbPath).
		Msg("starting")

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// defaultCachePath returns the local cache database location,
// ~/.local/share/fieldops/cache.db, creating the directory if needed.
func defaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "fieldops")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "cache.db"), nil
}
