package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/api"
	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/logger"
	"github.com/vietanh2810/encore-api/internal/realtime"
)

const (
	defaultConfigPath = "./cmd/app/config.yml"
	shutdownTimeout   = 10 * time.Second
)

type options struct {
	configPath string
	port       string
	conf       *config.AppConfig
}

func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "encore-api",
		Short:         "Check-in, sessions and audience features for a small concert.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts.conf)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the config file")
	fs.StringVarP(&opts.port, "port", "p", "", "port to listen on, overrides api.port")

	cmd.AddCommand(newServeCmd(opts), newImportCmd(opts), newExportCmd(opts))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func (o *options) load() error {
	conf, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}
	if o.port != "" {
		conf.API.Port = o.port
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	o.conf = conf

	return nil
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API (default)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts.conf)
		},
	}
}

func serve(ctx context.Context, conf *config.AppConfig) error {
	b, err := openBackend(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	s := api.NewServer(conf, b.docs, b.mirror)
	go s.Hub.Run(ctx)

	if conf.Realtime.Enabled && b.remoteDSN != "" {
		listener := realtime.NewListener(b.remoteDSN, conf.Realtime.NotifyChannel, s.OnDocumentChanged)
		go func() {
			if err := listener.Run(ctx); err != nil {
				zap.L().Error("change feed stopped, other instances' writes will not be pushed", zap.Error(err))
			}
		}()
	}

	conf.Watch(s.ApplyConfig, func(err error) {
		zap.L().Warn("config reload rejected", zap.Error(err))
	})

	srv := &http.Server{
		Addr:              ":" + conf.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}
