package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/justyntemme/shelf/internal/app"
	"github.com/justyntemme/shelf/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (default: user config dir)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	genConfig := flag.Bool("generate-config", false, "Write a default config, backing up any existing one, and exit")
	flag.Parse()

	// SHELF_* overrides may live in a local .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "shelf: .env: %v\n", err)
	}

	if *genConfig {
		path := *configPath
		if path == "" {
			path = config.ConfigPath()
		}
		backup, err := config.GenerateConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
			os.Exit(1)
		}
		if backup != "" {
			fmt.Printf("backed up %s\n", backup)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	if err := app.Main(app.Options{ConfigPath: *configPath, Debug: *debug}); err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		os.Exit(1)
	}
}
