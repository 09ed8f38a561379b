package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cortex/internal/adapter/memstore"
	"cortex/internal/logger"
	"cortex/internal/port"
	"cortex/internal/server"
)

var (
	serveAddr     string
	serveAllowAll bool
	serveMemory   bool
	serveModel    string
	serveOffline  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library over HTTP",
	Long: `Start the HTTP API: source management, search, citation-aware chat and
studio artifacts. With --memory the library lives in memory and is lost on exit.

Examples:
  cortex serve
  cortex serve --addr :8420 --allow-all-origins`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow CORS requests from any origin")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "keep the library in memory")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "model to use (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "never call a model")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var st port.DocumentStore
	if serveMemory {
		st = memstore.NewMemoryStore()
	} else {
		bolt, err := openLibrary()
		if err != nil {
			return err
		}
		st = bolt
	}
	defer st.Close()

	retrieve := newCachedRetrieve(cfg)
	model := newModel(cfg, serveModel, serveOffline)

	srvCfg := server.Config{
		Addr:     cfg.Server.Addr,
		AllowAll: cfg.Server.AllowAllOrigins || serveAllowAll,
		Root:     GetRootDir(),
	}
	if serveAddr != "" {
		srvCfg.Addr = serveAddr
	}

	srv := server.New(srvCfg, st,
		newIngest(cfg, st),
		retrieve,
		newChat(cfg, retrieve, model),
		newStudio(cfg, retrieve, model),
		cfg.Retrieve.ChatMaxHits,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", srvCfg.Addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
