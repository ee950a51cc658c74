package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bookshelf/internal/library"
)

// CatalogAdder is the part of the library service seeding uses.
type CatalogAdder interface {
	AddToCatalog(ctx context.Context, e library.CatalogEntry) (bool, error)
}

type catalogFile struct {
	Books []library.CatalogEntry `yaml:"books"`
}

func newSeedCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-catalog <file.yaml>",
		Short: "Load suggestion titles into the shared catalog",
		Example: `  # catalog.yaml
  books:
    - title: Solaris
      author: Stanislaw Lem
      cover_url: https://example.com/solaris.jpg

  bookshelf seed-catalog catalog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := parseCatalog(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, log, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			return seedCatalog(cmd.Context(), a.Library, entries, cmd.OutOrStdout())
		},
	}
}

func parseCatalog(data []byte) ([]library.CatalogEntry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return f.Books, nil
}

// seedCatalog adds every entry; duplicates and invalid entries are counted
// rather than failing the run.
func seedCatalog(ctx context.Context, c CatalogAdder, entries []library.CatalogEntry, out io.Writer) error {
	var inserted, duplicates, rejected int
	for _, e := range entries {
		ok, err := c.AddToCatalog(ctx, e)
		switch {
		case err != nil:
			var ve *library.ValidationError
			if !errors.As(err, &ve) {
				return fmt.Errorf("add %q: %w", e.Title, err)
			}
			rejected++
			fmt.Fprintf(out, "skipped %q: %v\n", e.Title, err)
		case ok:
			inserted++
		default:
			duplicates++
		}
	}
	fmt.Fprintf(out, "inserted: %d, duplicates: %d, rejected: %d\n", inserted, duplicates, rejected)
	return nil
}
