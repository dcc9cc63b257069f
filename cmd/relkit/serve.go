package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/policyforge/relkit/internal/report"
)

func serveCommand(args []string) error {
	fs := (&Command{Name: "serve"}).NewFlagSet()
	configPath, root := addCommonFlags(fs)
	address := fs.String("address", "", "Listen address (overrides serve.address from the config)")
	fs.Usage = printServeUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := newRunContext(*configPath, *root)
	if err != nil {
		return err
	}

	addr := rc.cfg.Serve.Address
	if *address != "" {
		addr = *address
	}
	if addr == "" {
		return fmt.Errorf("no listen address configured (set serve.address or pass --address)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := report.NewServer(addr, rc.cfg.Serve.ReadHeaderTimeout, report.Paths{
		BOM:           rc.bomPath(),
		Registry:      rc.registryPath(),
		ReleaseReport: filepath.Join(rc.reportDirPath(), "release-report.json"),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving release artifacts", "address", addr)
	return srv.ListenAndServe(ctx)
}

func printServeUsage() {
	fmt.Fprintf(os.Stderr, `Serve the release artifacts over HTTP

Exposes the BOM, the dependency registry, and the latest release report
as read-only JSON endpoints for CI dashboards.

USAGE:
    relkit serve [flags]

FLAGS:
    --address string   Listen address (overrides serve.address from the config)
    --config string    Path to relkit configuration file (default "relkit.yaml")
    --root string      Repository root (default ".")

ENDPOINTS:
    GET /healthz
    GET /api/v1/bom
    GET /api/v1/registry
    GET /api/v1/report

EXAMPLES:
    relkit serve --address :8790
`)
}
