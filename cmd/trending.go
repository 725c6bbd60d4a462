package cmd

import (
	"context"
	"fmt"

	"github.com/lukman83/buysmart/internal/platform"
	"github.com/lukman83/buysmart/internal/trending"
	"github.com/lukman83/buysmart/internal/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Get trending products",
	RunE:  runTrending,
}

func init() {
	trendingCmd.Flags().Int("days", trending.DefaultDays, "Trailing window in days (max 30)")
	trendingCmd.Flags().Int("limit", trending.DefaultLimit, "Number of items (max 50)")
	trendingCmd.Flags().Bool("searches", false, "Show trending search queries instead of products")
	rootCmd.AddCommand(trendingCmd)
}

func runTrending(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	spin := ui.NewSpinner()
	spin.Start("Fetching trending...")
	ctx := platform.WithProgress(context.Background(), spin.Update)

	if searches, _ := cmd.Flags().GetBool("searches"); searches {
		items, err := a.Trending.Searches(ctx, days, limit)
		spin.Stop()
		if err != nil {
			return errors.Wrap(err, "trending failed")
		}
		if outputFormat(cmd) == "json" {
			return printJSON(out, items)
		}
		for i, s := range items {
			fmt.Fprintf(out, " %d. %s (%d)\n", i+1, s.Query, s.Count)
		}
		return nil
	}

	res, err := a.Trending.Load(ctx, days, limit)
	spin.Stop()
	if err != nil {
		return errors.Wrap(err, "trending failed")
	}

	if outputFormat(cmd) == "json" {
		return printJSON(out, res)
	}
	if res.Empty() {
		fmt.Fprintln(out, trending.EmptyMessage)
		return nil
	}
	fmt.Fprintf(out, "Trending over the last %d days\n\n", res.Days)
	printProductsTable(out, res.Products)
	return nil
}
