package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lukman83/buysmart/internal/analytics"
	"github.com/lukman83/buysmart/internal/app"
	"github.com/lukman83/buysmart/internal/deals"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
	"github.com/lukman83/buysmart/internal/search"
	"github.com/lukman83/buysmart/internal/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search products across marketplaces",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Float64("min-price", -1, "Minimum price in rupees")
	searchCmd.Flags().Float64("max-price", -1, "Maximum price in rupees")
	searchCmd.Flags().StringSlice("platform", nil, "Limit to platforms (repeatable): Amazon, Flipkart, Meesho, Myntra")
	searchCmd.Flags().Float64("min-rating", -1, "Minimum rating, 0-5")
	searchCmd.Flags().Bool("fast", true, "Serve from the catalogue without waiting for scrapers")
	searchCmd.Flags().Bool("live", false, "Include live scraping (slow)")
	searchCmd.Flags().String("compare", "", "Compare results by position, e.g. 1,3,4")
	searchCmd.Flags().Bool("analytics", false, "Print a per-platform summary of the results")
	searchCmd.Flags().Int("open", 0, "Open the Nth result in the browser")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	filters, err := searchFilters(cmd, a)
	if err != nil {
		return err
	}

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching '%s'...", query))
	ctx := platform.WithProgress(context.Background(), spin.Update)
	res, err := a.Search.Search(ctx, query, filters)
	spin.Stop()
	if err != nil {
		return errors.Wrap(err, "search failed")
	}

	out := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return printJSON(out, res)
	}

	if len(res.Products) == 0 {
		msg := res.Message
		if msg == "" {
			msg = "No products found. Try a different search."
		}
		fmt.Fprintln(out, msg)
		return nil
	}
	fmt.Fprintf(out, "%d results for '%s'\n\n", res.Count, res.Query)
	printProductsTable(out, res.Products)
	if st := a.Search.State().Stats; st != nil {
		fmt.Fprintf(out, "\nCatalogue: %d products, avg %s\n", st.TotalProducts, analytics.FormatINR(st.AveragePrice))
	}

	if show, _ := cmd.Flags().GetBool("analytics"); show {
		fmt.Fprintln(out)
		printPlatformSummary(out, analytics.GroupByPlatform(res.Products))
	}
	if picks, _ := cmd.Flags().GetString("compare"); picks != "" {
		if err := compareResults(out, a, res.Products, picks); err != nil {
			return err
		}
	}
	if n, _ := cmd.Flags().GetInt("open"); n > 0 {
		p, err := pick(res.Products, n)
		if err != nil {
			return err
		}
		u, err := a.Links.Open(context.Background(), p, deals.SourceSearch, query)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nOpening %s\n", u)
	}
	return nil
}

func searchFilters(cmd *cobra.Command, a *app.App) (search.Filters, error) {
	var f search.Filters
	if v, _ := cmd.Flags().GetFloat64("min-price"); cmd.Flags().Changed("min-price") {
		f.MinPrice = search.Float(v)
	}
	if v, _ := cmd.Flags().GetFloat64("max-price"); cmd.Flags().Changed("max-price") {
		f.MaxPrice = search.Float(v)
	}
	if v, _ := cmd.Flags().GetFloat64("min-rating"); cmd.Flags().Changed("min-rating") {
		f.MinRating = search.Float(v)
	}
	names, _ := cmd.Flags().GetStringSlice("platform")
	for _, name := range names {
		p, ok := platform.ParseStrict(name)
		if !ok {
			return f, errors.Errorf("unknown platform %q", name)
		}
		f.Platforms = append(f.Platforms, p)
	}
	if cmd.Flags().Changed("fast") {
		v, _ := cmd.Flags().GetBool("fast")
		f.FastMode = search.Bool(v)
	}
	f.IncludeLiveScraping = a.Config.IncludeLiveScraping
	if cmd.Flags().Changed("live") {
		f.IncludeLiveScraping, _ = cmd.Flags().GetBool("live")
	}
	return f, nil
}

func compareResults(w io.Writer, a *app.App, products []models.Product, picks string) error {
	for _, s := range strings.Split(picks, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.Errorf("bad --compare position %q", s)
		}
		p, err := pick(products, n)
		if err != nil {
			return err
		}
		if a.Compare.Contains(p.ID) {
			continue
		}
		if _, err := a.Compare.Toggle(p); err != nil {
			return err
		}
	}

	bars, ok := a.Compare.Summary()
	if !ok {
		return nil
	}
	fmt.Fprintln(w, "\nComparison")
	for _, b := range bars {
		rating := "-"
		if b.Rating > 0 {
			rating = fmt.Sprintf("%.1f★", b.Rating)
		}
		fmt.Fprintf(w, "  %-18s %-9s %12s  %s\n", b.Label, b.Platform, analytics.FormatINR(b.Price), rating)
	}
	return nil
}

func printPlatformSummary(w io.Writer, groups []analytics.PlatformSummary) {
	fmt.Fprintln(w, "By platform")
	for _, g := range groups {
		rating := "-"
		if g.Rated > 0 {
			rating = fmt.Sprintf("%.1f★ (%d rated)", g.AvgRating, g.Rated)
		}
		fmt.Fprintf(w, "  %-9s %3d items  avg %12s  %s\n", g.Platform, g.Count, analytics.FormatINR(g.AvgPrice), rating)
	}
}

// pick returns the product at 1-based position n.
func pick(products []models.Product, n int) (models.Product, error) {
	if n < 1 || n > len(products) {
		return models.Product{}, errors.Errorf("position %d out of range 1-%d", n, len(products))
	}
	return products[n-1], nil
}
