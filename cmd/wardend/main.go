package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cnl-ai/warden/internal/ratelimit"
	"github.com/cnl-ai/warden/internal/registry"
	"github.com/cnl-ai/warden/pkg/config"
	"github.com/cnl-ai/warden/pkg/env"
	"github.com/cnl-ai/warden/pkg/gateway"
	"github.com/cnl-ai/warden/pkg/logging"
	"github.com/cnl-ai/warden/pkg/mcp"
	"github.com/cnl-ai/warden/pkg/provider"
	"github.com/cnl-ai/warden/pkg/safety"
	"github.com/cnl-ai/warden/pkg/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile     string
	gatewayAddr string
	httpAddr    string
	maxSessions int
	showVersion bool
)

func main() {
	pflag.StringVar(&cfgFile, "config", "", "config file (default: ~/.warden/config.yaml)")
	pflag.StringVar(&gatewayAddr, "addr", "", "gateway listen address")
	pflag.StringVar(&httpAddr, "http-addr", "", "HTTP transport listen address")
	pflag.IntVar(&maxSessions, "max-sessions", 0, "maximum concurrent sessions (0 = unlimited)")
	pflag.BoolVar(&showVersion, "version", false, "print version and exit")
	pflag.Parse()

	log := logrus.New()

	if showVersion {
		log.Infof("wardend %s", version.String())
		return
	}

	_ = env.LoadFromDir(".")

	if cfgFile == "" {
		if _, err := os.Stat(config.DefaultConfigPath()); err == nil {
			cfgFile = config.DefaultConfigPath()
		}
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	reg, err := loadRegistry(cfg.Registry.Overlay)
	if err != nil {
		log.Fatalf("load registry: %v", err)
	}

	ttl, err := cfg.Confirmation.ParseTTL()
	if err != nil {
		log.Fatalf("confirmation config: %v", err)
	}
	burstWindow, err := cfg.RateLimit.ParseBurstWindow()
	if err != nil {
		log.Fatalf("rate limit config: %v", err)
	}
	maxWait, err := cfg.RateLimit.ParseMaxWait()
	if err != nil {
		log.Fatalf("rate limit config: %v", err)
	}

	local := provider.NewLocal()
	if cfg.Provider.Seed != "" {
		if err := local.LoadSeed(cfg.Provider.Seed); err != nil {
			log.Fatalf("load provider seed: %v", err)
		}
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	guard := safety.NewGuard(safety.Options{
		Registry:   reg,
		Reader:     local,
		Writer:     local,
		BackupsDir: cfg.Backups.Dir,
		ConfirmTTL: ttl,
		RateLimit: ratelimit.Options{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			BurstWindow:       burstWindow,
			MaxWait:           maxWait,
		},
		Logger: logger,
		Audit:  safety.NewLogRecorder(logger),
	})

	mcpServer := mcp.NewServer(guard)
	mcpServer.SetLogger(logger)

	if gatewayAddr == "" {
		gatewayAddr = cfg.Gateway.Address
	}
	if httpAddr == "" {
		httpAddr = cfg.HTTP.Address
	}
	if maxSessions == 0 {
		maxSessions = cfg.Gateway.MaxSessions
	}

	gw := gateway.NewServer(gatewayAddr, mcpServer, guard, gateway.AllowlistAuthorizer{Allowed: cfg.Gateway.AllowedAddrs})
	gw.SetLogger(logger)
	if maxSessions > 0 {
		gw.SetMaxSessions(maxSessions)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return gw.Start(ctx)
	})
	group.Go(func() error {
		return mcp.ServeHTTP(ctx, mcpServer, httpAddr)
	})

	log.Infof("wardend %s: gateway on %s, http on %s", version.String(), gatewayAddr, httpAddr)

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("wardend: %v", err)
	}
}

func loadRegistry(overlay string) (*registry.Registry, error) {
	if overlay == "" {
		return registry.Builtin(), nil
	}
	return registry.Load(overlay)
}
