package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bookshelf/internal/isbn"
	"bookshelf/internal/lookup"
)

// Resolver is the part of the lookup service the commands use.
type Resolver interface {
	Lookup(ctx context.Context, raw string) (lookup.Metadata, error)
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <isbn>",
		Short: "Resolve an ISBN and print the metadata as JSON",
		Example: `  bookshelf lookup 978-5-17-090630-7
  bookshelf lookup 5170906307`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()
			return printLookup(cmd.Context(), a.Lookup, args[0], cmd.OutOrStdout())
		},
	}
}

func printLookup(ctx context.Context, r Resolver, raw string, out io.Writer) error {
	m, err := r.Lookup(ctx, raw)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <isbn>",
		Short: "Print the canonical ISBN-13 (and ISBN-10 when one exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNormalized(args[0], cmd.OutOrStdout())
		},
	}
}

func printNormalized(raw string, out io.Writer) error {
	isbn13, err := isbn.Normalize(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, err)
	}
	fmt.Fprintf(out, "isbn13: %s\n", isbn13)
	if isbn10, ok := isbn.To10(isbn13); ok {
		fmt.Fprintf(out, "isbn10: %s\n", isbn10)
	}
	return nil
}
