package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pauvepe/whispervoice/internal/logging"
	"github.com/pauvepe/whispervoice/internal/models"
)

func main() {
	var (
		variant = flag.String("variant", "tiny", "model variant defined in internal/models/embedded_manifest.yaml")
		output  = flag.String("dir", "testdata", "base directory where models/<file> will be stored")
		quiet   = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	if strings.TrimSpace(*output) == "" {
		fmt.Fprintln(os.Stderr, "download_model: --dir must not be empty")
		os.Exit(2)
	}

	logger, _ := logging.New(logging.Options{Level: "info"})

	baseDir := filepath.Clean(*output)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	manager, err := models.NewManager(baseDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download_model: init manager: %v\n", err)
		os.Exit(1)
	}

	manifest, err := models.DefaultManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "download_model: load manifest: %v\n", err)
		os.Exit(1)
	}

	opts := models.EnsureOptions{Manifest: manifest}
	if !*quiet {
		opts.Progress = func(percent int) {
			fmt.Fprintf(os.Stderr, "\rdownloading %s: %3d%%", *variant, percent)
			if percent == 100 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	path, err := manager.EnsureVariant(ctx, *variant, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download_model: ensure variant %q (available: %s): %v\n",
			*variant, strings.Join(manifest.Names(), ", "), err)
		os.Exit(1)
	}

	fmt.Printf("Model %q ready at %s\n", *variant, path)
}
