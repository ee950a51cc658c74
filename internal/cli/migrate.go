package cli

import (
	"github.com/spf13/cobra"

	"bookshelf/internal/config"
	"bookshelf/internal/dbmigrate"
)

func newMigrateCmd() *cobra.Command {
	var (
		name string
		dir  string
	)

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|create]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: dbmigrate.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return dbmigrate.Run(cmd.Context(), cfg.DBDSN, dir, command, name, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name for the create command")
	cmd.Flags().StringVar(&dir, "dir", dbmigrate.Dir(), "Migrations directory")
	return cmd
}
