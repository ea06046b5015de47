package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"elecetl/internal/sample"
	"elecetl/internal/storage"
)

func newSampleCmd(stdout io.Writer) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a small sample sales file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := sample.Sales()
			if err := storage.Save(cmd.Context(), tbl, out); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Wrote %d sample sales rows to %s\n", tbl.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "electricity_sales.csv", "output path (.csv or .parquet)")
	return cmd
}
