// cmd/tiptv-bridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tiptv/bridge"
	"github.com/tiptv/bridge/shell"
	"github.com/tiptv/bridge/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML configuration file")
		env         = flag.String("env", "default", "configuration preset: default, development or production")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Build())
		return
	}

	cfg, err := loadConfig(*configPath, *env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// ServeStdio handles SIGINT and SIGTERM; Serve returns once the
	// client disconnects or the process is signalled.
	if err := shell.Serve(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "bridge error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path, env string) (bridge.Config, error) {
	var cfg bridge.Config
	switch env {
	case "development":
		cfg = bridge.DevelopmentConfig()
	case "production":
		cfg = bridge.ProductionConfig()
	default:
		cfg = bridge.DefaultConfig()
	}

	if path == "" {
		return cfg, nil
	}

	loader, err := bridge.LoadConfig(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return cfg, err
	}

	loaded, err := loader.Load(context.Background())
	if err != nil {
		return cfg, err
	}

	return *loaded, nil
}
