package cli

import (
	"github.com/spf13/cobra"

	"bookshelf/internal/config"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Example: `  # Listen on APP_ADDR (default :8080)
  bookshelf serve

  # Listen on another port
  bookshelf serve --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := openApp(cmd.Context(), func(cfg *config.Config) {
				if addr != "" {
					cfg.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on, overrides APP_ADDR")
	return cmd
}
