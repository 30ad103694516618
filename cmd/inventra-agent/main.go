package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rmachado/inventra/internal/agent"
	"github.com/rmachado/inventra/internal/domain"
)

func main() {
	var (
		serverURL  = flag.String("server", envOr("INVENTRA_SERVER_URL", "http://localhost:8000"), "backend base URL")
		token      = flag.String("token", os.Getenv("INVENTRA_AGENT_TOKEN"), "agent bearer token")
		interval   = flag.Duration("interval", 30*time.Minute, "time between reports")
		spoolPath  = flag.String("spool", defaultSpoolPath(), "offline spool file")
		deviceType = flag.String("device-type", "computer", "device type reported to the backend")
		once       = flag.Bool("once", false, "collect and report a single time, then exit")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if *token == "" {
		log.Error("agent token is required (-token or INVENTRA_AGENT_TOKEN)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := agent.NewClient(*serverURL, *token)
	spool := agent.NewSpool(*spoolPath)

	log.Info("agent starting", "server", *serverURL, "interval", interval.String(), "spool", *spoolPath)

	cycle(ctx, log, client, spool, *deviceType)
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("agent stopping")
			return
		case <-ticker.C:
			cycle(ctx, log, client, spool, *deviceType)
		}
	}
}

// cycle replays anything left in the spool, then collects and reports a
// fresh snapshot. A snapshot that cannot be delivered is spooled for the
// next cycle.
func cycle(ctx context.Context, log *slog.Logger, client *agent.Client, spool *agent.Spool, deviceType string) {
	if delivered, err := spool.Drain(ctx, client.Report); err != nil {
		log.Warn("spool drain interrupted", "delivered", delivered, "err", err)
	} else if delivered > 0 {
		log.Info("spooled snapshots delivered", "count", delivered)
	}

	snap, err := agent.Collect(ctx, deviceType)
	if err != nil {
		log.Error("collect failed", "err", err)
		return
	}

	if err := client.Report(ctx, snap); err != nil {
		log.Warn("report failed, spooling snapshot", "err", err)
		if err := spool.Append(snap); err != nil {
			log.Error("spool append failed", "err", err)
		}
		return
	}
	log.Info("report delivered", "ip", snap.IPAddress, "components", componentCount(snap))
}

func componentCount(snap *domain.Snapshot) int {
	return len(snap.Hardware)
}

func defaultSpoolPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "inventra-agent", "spool.jsonl")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
