package main

import (
	"os"

	"github.com/spf13/cobra"

	"resume-review/internal/reviews"
)

type rootOptions struct {
	apiURL string
	token  string
	guest  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "review",
		Short:         "Analyze resumes against a job and browse past reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("REVIEW_API_URL", "http://localhost:8080/api/v1"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("REVIEW_TOKEN"), "bearer token")
	cmd.PersistentFlags().StringVar(&opts.guest, "guest", os.Getenv("REVIEW_GUEST_ID"), "guest id (dev servers only)")

	cmd.AddCommand(newAnalyzeCmd(), newShowCmd(opts), newListCmd(opts))
	return cmd
}

func (o *rootOptions) client() *reviews.Client {
	c := reviews.NewClient(o.apiURL, o.token)
	c.GuestID = o.guest
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
