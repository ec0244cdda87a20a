package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apresai/podcastr/internal/httpapi"
	"github.com/apresai/podcastr/internal/mcpserver"
	"github.com/apresai/podcastr/internal/observability"
)

var flagServeMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and optionally the MCP server)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&flagServeMCP, "mcp", false, "Also serve MCP tools on PODCASTR_MCP_PORT")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.Logger

	tp, err := observability.InitTracer(ctx, "podcastr-api", Version, a.Config.Environment)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Tracer shutdown error", "error", err)
			}
		}()
	}

	if flagServeMCP {
		mcpSrv := mcpserver.New(a.Config.MCPPort, a.MCPDeps(), logger)
		go func() {
			if err := mcpSrv.Start(); err != nil {
				logger.Error("MCP server stopped", "error", err)
				stop()
			}
		}()
	}

	srv, err := httpapi.New(ctx, a.HTTPOptions())
	if err != nil {
		return err
	}
	return srv.Run(ctx, a.Config.Addr)
}
