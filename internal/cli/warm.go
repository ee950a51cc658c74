package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/lookup"
)

// WarmReport counts the outcome of each ISBN in a warm run.
type WarmReport struct {
	Found    int
	NotFound int
	Invalid  int
}

func newWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm <file>",
		Short: "Resolve every ISBN in a file so later lookups hit the cache",
		Long: `Reads one ISBN per line ("-" for stdin). Blank lines and lines
starting with # are skipped. Lookups run one after another so the
catalogs' rate limits are respected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := io.Reader(os.Stdin)
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			a, log, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			report, err := warm(cmd.Context(), a.Lookup, in, cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "found: %d, not found: %d, invalid: %d\n",
				report.Found, report.NotFound, report.Invalid)
			return err
		},
	}
}

func warm(ctx context.Context, r Resolver, in io.Reader, out io.Writer) (WarmReport, error) {
	var report WarmReport
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		m, err := r.Lookup(ctx, line)
		switch {
		case errors.Is(err, lookup.ErrInvalidISBN):
			report.Invalid++
			fmt.Fprintf(out, "%s\tinvalid\n", line)
		case errors.Is(err, lookup.ErrMetadataNotFound):
			report.NotFound++
			fmt.Fprintf(out, "%s\tnot found\n", line)
		case err != nil:
			return report, fmt.Errorf("lookup %s: %w", line, err)
		default:
			report.Found++
			fmt.Fprintf(out, "%s\t%s\t%s\n", m.ISBN13, m.Source, m.Title)
		}
	}
	return report, sc.Err()
}
