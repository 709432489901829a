package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("seed", false, "load seed fixtures and the CV directory before serving")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hr-assistant server", zap.String("version", version))

	svc, err := newServices(ctx, config, true, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}
	defer svc.Close()

	if seedFirst, _ := cmd.Flags().GetBool("seed"); seedFirst {
		if err := runSeed(ctx, svc, config.Seed, logger); err != nil {
			logger.Fatal("seeding", zap.Error(err))
		}
	}

	srv, err := server.New(server.Config{
		Addr:      config.Server.Addr,
		UploadDir: config.Uploads.Dir,
	}, server.Deps{
		Auth:       svc.auth,
		Assistant:  svc.engine,
		Candidates: svc.candidates,
		Payroll:    svc.payroll,
		Uploader:   svc.ingester,
	}, logger)
	if err != nil {
		logger.Fatal("creating the http server", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
