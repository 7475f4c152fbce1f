package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tatianab/donjon/internal/catalog"
	"github.com/tatianab/donjon/internal/chronicle"
	"github.com/tatianab/donjon/internal/config"
	"github.com/tatianab/donjon/internal/random"
	"github.com/tatianab/donjon/internal/storage"
	"github.com/tatianab/donjon/internal/storage/filestore"
	"github.com/tatianab/donjon/internal/storage/sqlite"
	"github.com/tatianab/donjon/internal/tui"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "donjon")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening saves: %w", err)
	}
	defer store.Close()

	rng, err := random.New(cfg.Seed)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Catalog: cat,
		Store:   store,
		Rand:    rng,
		Lang:    cfg.Language(),
	}
	if cfg.Chronicle() {
		chron, err := chronicle.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cat)
		if err != nil {
			log.Printf("chronicle disabled: %v", err)
		} else {
			defer chron.Close()
			opts.Chronicler = chron
		}
	}

	log.Printf("starting: backend=%s seed=%d lang=%s", cfg.SaveBackend, cfg.Seed, cfg.Language())
	return tui.Run(ctx, opts)
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.DataDir != "" {
		return catalog.LoadDir(cfg.DataDir)
	}
	return catalog.LoadEmbedded()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.SaveBackend == config.BackendSQLite {
		return sqlite.Open(cfg.DBPath())
	}
	return filestore.Open(cfg.SaveDir)
}
