package main

import (
	"github.com/ndemidov/liber/internal/config"
	"github.com/ndemidov/liber/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
