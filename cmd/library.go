package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/library"
	"github.com/kilianp07/virtos/infra/logger"
)

var (
	libType string
	libNote string
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect and update the component library",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List component records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd.Context(), func(reg *library.Registry) error {
			return printRecords(cmd.OutOrStdout(), reg.Hash(), reg.Records(library.ComponentType(libType)))
		})
	},
}

var libraryValidateCmd = &cobra.Command{
	Use:   "validate <records-file>",
	Short: "Validate a record file without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := config.LoadRecords(args[0])
		if err != nil {
			return err
		}
		if errs := library.Validate(recs); errs != nil {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%d validation errors", len(errs))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d records valid\n", len(recs))
		return nil
	},
}

var libraryUpsertCmd = &cobra.Command{
	Use:   "upsert <records-file>",
	Short: "Replace the library with the records of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := config.LoadRecords(args[0])
		if err != nil {
			return err
		}
		return withRegistry(cmd.Context(), func(reg *library.Registry) error {
			prev := reg.Hash()
			snap, err := reg.Upsert(cmd.Context(), recs, libNote)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "library %s -> %s (%d records)\n", prev, snap.LibraryHash, len(snap.Records))
			return nil
		})
	},
}

var libraryExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the current library snapshot as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd.Context(), func(reg *library.Registry) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeJSON(w, reg.Snapshot())
		})
	},
}

func init() {
	libraryListCmd.Flags().StringVarP(&libType, "type", "t", "", "filter by component type")
	libraryUpsertCmd.Flags().StringVarP(&libNote, "note", "n", "", "history note for the update")
	libraryCmd.AddCommand(libraryListCmd, libraryValidateCmd, libraryUpsertCmd, libraryExportCmd)
	rootCmd.AddCommand(libraryCmd)
}

func withRegistry(ctx context.Context, fn func(reg *library.Registry) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := library.OpenStore(cfg.Library.Backend, cfg.Library.Path)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	reg, err := library.Load(ctx, store, library.WithLogger(logger.New("library")))
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	return fn(reg)
}

func printRecords(w io.Writer, hash string, recs []library.ComponentRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "library %s\n", hash)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tVERSION\tEFFECTIVE\tSOURCE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.ComponentID, r.ComponentType, r.Name, r.Version, r.EffectiveDate, r.Source)
	}
	return tw.Flush()
}
