package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/datallboy/comexdown/internal/api"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index and transfer history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("listen") {
				a.Config.Server.Listen = listen
			}

			srv := &http.Server{
				Addr:              a.Config.Server.Listen,
				Handler:           api.NewServer(a),
				ReadHeaderTimeout: 10 * time.Second,
			}

			group, ctx := errgroup.WithContext(cmd.Context())

			group.Go(func() error {
				a.Logger.Info("Listening on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			group.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.Logger.Info("Shutting down")
				return srv.Shutdown(shutdownCtx)
			})

			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default :8080)")
	return cmd
}
