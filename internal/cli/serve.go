package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/prfstim/prfstim/pkg/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		stim   stimFlags
		caches cacheFlags
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve timeline and frame previews over HTTP",
		Long: `Serve timeline and frame previews over HTTP.

  GET /healthz
  GET /timeline
  GET /frames/{block}/{trial}.{png,json,plot,dot,svg}[?variant=prf]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), stim, caches, addr)
		},
	}

	stim.register(cmd)
	caches.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, stim stimFlags, caches cacheFlags, addr string) error {
	logger := loggerFromContext(ctx)
	opts, err := stim.options(logger)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, caches)
	defer runner.Close()

	srv, err := api.New(ctx, runner, opts)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()

	printSuccess("Serving previews")
	printKeyValue("Address", StyleLink.Render("http://"+displayAddr(addr)))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// displayAddr fills in localhost for a bare port.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
