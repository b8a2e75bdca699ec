package main

import (
	"fmt"
	"io"
	"strings"

	"district-dash/internal/dataset"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a startup cache file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.LoadCacheFile(path)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), ds)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "cache", "data/cache/dataset.gob.zst", "cache file")
	return cmd
}

func printSummary(w io.Writer, ds *dataset.Dataset) {
	months := ds.Table.Months()
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.String()
	}
	fmt.Fprintf(w, "built_at:  %s\n", ds.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "id_field:  %s\n", ds.Regions.IDField())
	fmt.Fprintf(w, "regions:   %d\n", ds.Regions.Len())
	fmt.Fprintf(w, "rows:      %d\n", ds.Table.Len())
	fmt.Fprintf(w, "districts: %d\n", len(ds.Table.Districts()))
	fmt.Fprintf(w, "months:    %s\n", strings.Join(names, ","))
}
