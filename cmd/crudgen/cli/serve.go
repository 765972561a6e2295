package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/crudgen/internal/handler"
	"github.com/faucetdb/crudgen/internal/server"
	"github.com/faucetdb/crudgen/internal/session"
)

const banner = `
                      _
  ___ _ __ _   _  __| | __ _  ___ _ __
 / __| '__| | | |/ _' |/ _' |/ _ \ '_ \
| (__| |  | |_| | (_| | (_| |  __/ | | |
 \___|_|   \__,_|\__,_|\__, |\___|_| |_|
                       |___/
`

// sweepInterval is how often idle sessions are removed.
const sweepInterval = 10 * time.Minute

func newServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		noUI      bool
		rateLimit int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the crudgen web server",
		Long:  "Start the HTTP server with the browser UI and the /api/v1 endpoints behind it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), noUI, rateLimit)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the browser UI")
	cmd.Flags().IntVar(&rateLimit, "generate-rate-limit", 30, "Generation requests per session per minute (0 disables)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context, noUI bool, rateLimit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Print(banner)
	fmt.Println()

	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 1. Session store (SQLite, in memory unless a data dir is set)
	sessions, err := session.NewStore(cfg.Session.DataDir)
	if err != nil {
		return fmt.Errorf("init session store: %w", err)
	}
	defer sessions.Close()
	signer, err := session.NewSigner(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return err
	}
	if cfg.Session.Secret == "" {
		logger.Warn("session.secret not set; sessions will not survive a restart")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go session.Sweep(sweepCtx, sessions, cfg.Session.TTL, sweepInterval, logger)

	// 2. Datasource
	registry, err := connectDatasource(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect datasource: %w", err)
	}

	// 3. Generation model; the UI still works for schema editing without one.
	var generator handler.CodeGenerator
	if g, err := newGenerator(cfg, logger); err != nil {
		logger.Warn("code generation disabled", "error", err)
	} else {
		generator = g
	}

	// 4. HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.CORSOrigins = cfg.Server.CORSOrigins
	srvCfg.EnableUI = !noUI
	srvCfg.OutputDir = cfg.Output.BaseDir
	srvCfg.Stream = handler.StreamConfig{
		WordDelay:       cfg.Stream.WordDelay,
		SchemaWordDelay: cfg.Stream.SchemaWordDelay,
	}
	srvCfg.GenerateRateLimit = rateLimit
	srvCfg.Version = versionString()

	srv := server.New(srvCfg, registry, sessions, signer, generator, logger)

	base := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ crudgen %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	if !noUI {
		fmt.Printf("→ UI:         %s/\n", base)
	}
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Printf("→ Health:     %s/healthz\n", base)
	fmt.Printf("→ Output dir: %s\n", cfg.Output.BaseDir)
	fmt.Println()

	return srv.ListenAndServe(ctx)
}
