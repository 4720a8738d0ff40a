package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scrumdeck/poker-host/internal/config"
	"github.com/scrumdeck/poker-host/internal/credentials"
	"github.com/scrumdeck/poker-host/internal/httpapi"
	"github.com/scrumdeck/poker-host/internal/jira"
	"github.com/scrumdeck/poker-host/internal/logger"
	"github.com/scrumdeck/poker-host/internal/netinfo"
	"github.com/scrumdeck/poker-host/internal/relay"
	"github.com/scrumdeck/poker-host/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	vault, err := credentials.NewVault(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open credential vault: %w", err)
	}

	st := store.New(log)
	jiraClient := jira.NewClient(jira.Config{
		BaseURL:  cfg.JiraBaseURL,
		Email:    cfg.JiraEmail,
		APIToken: cfg.JiraAPIToken,
	}, log)
	relayMgr := relay.NewManager(st, cfg.HeartbeatInterval, log)

	// Scan the port range for a free listener so several hosts can share a
	// machine, like the desktop client does.
	ln, port, err := listen(cfg.BindAddr, cfg.PortMin, cfg.PortMax)
	if err != nil {
		return err
	}

	api := &httpapi.API{
		Store:    st,
		Relay:    relayMgr,
		Jira:     jiraClient,
		Vault:    vault,
		Prober:   netinfo.NewProber(log),
		Logger:   log,
		Port:     port,
		RelayURL: cfg.RelayURL,
	}

	srv := &http.Server{
		Handler:           httpapi.SetupRoutes(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			zap.String("addr", ln.Addr().String()),
			zap.Int("port", port))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		relayMgr.Disconnect()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// listen tries each port in [min, max] and returns the first that binds.
func listen(addr string, min, max int) (net.Listener, int, error) {
	for port := min; port <= max; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", addr, port))
		if err == nil {
			return ln, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in %d-%d on %s", min, max, addr)
}
