package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resume-review/internal/reviews"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <review-id>",
		Short: "Print a review's ATS score and tips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := root.client().Get(cmd.Context(), args[0])
			if errors.Is(err, reviews.ErrNotFound) {
				return fmt.Errorf("review %s not found", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s at %s\n", detail.JobTitle, detail.CompanyName)
			fmt.Fprintf(out, "ATS score: %d/100\n", detail.ATSScore)
			for _, tip := range detail.ATSTips {
				fmt.Fprintf(out, "  - %s\n", tip)
			}
			return nil
		},
	}
}

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your reviews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := root.client().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reviews yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMPANY\tTITLE\tATS\tCREATED")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", it.ID, it.CompanyName, it.JobTitle, it.ATSScore, it.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
