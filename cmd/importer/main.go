package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"goeats/internal/config"
	"goeats/internal/importer"
	"goeats/internal/logger"
	"goeats/internal/repository/state"
	"goeats/internal/service/cart"
)

func main() {
	var (
		filePath string
		export   bool
		replace  bool
	)
	flag.StringVar(&filePath, "file", "", "Path to the cart CSV file")
	flag.BoolVar(&export, "export", false, "Write the stored cart to -file instead of importing it")
	flag.BoolVar(&replace, "replace", false, "Clear the stored cart before importing")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, os.Stderr)

	repo, closeRepo, err := state.Open(context.Background(), cfg.StorageOptions())
	if err != nil {
		fatal(log, "open storage", err)
	}
	defer closeRepo()

	items, err := cart.New(repo, log)
	if err != nil {
		fatal(log, "load cart", err)
	}

	if export {
		f, err := os.Create(filePath)
		if err != nil {
			fatal(log, "create file", err)
		}
		defer f.Close()
		if err := importer.Export(f, items.Items()); err != nil {
			fatal(log, "export failed", err)
		}
		fmt.Printf("Exported %d lines from profile %s\n", items.Len(), cfg.Profile)
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		fatal(log, "open file", err)
	}
	defer f.Close()

	if replace {
		if err := items.Clear(); err != nil {
			fatal(log, "clear cart", err)
		}
	}

	start := time.Now()
	count, err := importer.NewCSVImporter(f, items).Run()
	if err != nil {
		fatal(log, "import failed", err)
	}

	fmt.Printf("Imported %d rows into profile %s in %s\n", count, cfg.Profile, time.Since(start).Truncate(time.Millisecond))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
