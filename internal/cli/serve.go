package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/taskboard/internal/config"
	"github.com/thruflo/taskboard/internal/server"
	"github.com/thruflo/taskboard/web"
)

var (
	serveAddr   string
	serveAssets string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board to a browser on this machine",
	Long: `Starts a web server for the board, bound to 127.0.0.1:8374 unless
configured otherwise. Open the printed address in a browser; cards can be
dragged between columns there.

The page and the task commands share the saved board. Changes made from
other pages show up live.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address host:port (default from config)")
	serveCmd.Flags().StringVar(&serveAssets, "assets", "", "serve the web client from this directory instead of the embedded copy")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, sessionOptions{logOutput: cmd.ErrOrStderr(), animate: true})
	if err != nil {
		return err
	}
	defer s.Close()

	srvCfg := s.cfg.Server
	if serveAddr != "" {
		cfg := *s.cfg
		if err := config.ApplyEnv(&cfg, map[string]string{config.EnvAddr: serveAddr}); err != nil {
			return err
		}
		if err := config.ValidateServerConfig(&cfg.Server); err != nil {
			return err
		}
		srvCfg = cfg.Server
	}

	var assets fs.FS
	if serveAssets != "" {
		if stat, err := os.Stat(serveAssets); err != nil || !stat.IsDir() {
			return fmt.Errorf("assets directory %q not found", serveAssets)
		}
		assets = web.Assets(serveAssets)
	}

	srv, err := server.NewServerFromConfig(&srvCfg, s.ctl, assets, s.log)
	if err != nil {
		return err
	}
	s.renderer.OnChange(srv.Stream().Notify)

	go announce(ctx, srv, cmd.OutOrStdout())
	return srv.Start(ctx)
}

// announce prints the board's address once the server is listening.
func announce(ctx context.Context, srv *server.Server, w io.Writer) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if addr := srv.ListenAddr(); addr != "" {
				fmt.Fprintf(w, "Serving board on http://%s (Ctrl+C to stop)\n", addr)
				return
			}
		}
	}
}
