package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/lukman83/buysmart/internal/analytics"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the platform analytics overview",
	RunE:  runAnalytics,
}

var priceHistoryCmd = &cobra.Command{
	Use:   "price-history [product-id]",
	Short: "Show how a product's price moved",
	Args:  cobra.ExactArgs(1),
	RunE:  runPriceHistory,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List your price-drop alerts",
	Args:  cobra.NoArgs,
	RunE:  runAlerts,
}

var alertsCreateCmd = &cobra.Command{
	Use:   "create [product-id]",
	Short: "Get notified when a product drops below a price",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertCreate,
}

func init() {
	analyticsCmd.Flags().Int("days", 30, "Trailing window: 7, 30 or 90")
	alertsCreateCmd.Flags().Float64("target", 0, "Target price in rupees")
	alertsCreateCmd.Flags().String("email", "", "Notify this address instead of the account email")

	alertsCmd.AddCommand(alertsCreateCmd)
	rootCmd.AddCommand(analyticsCmd, priceHistoryCmd, alertsCmd)
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if err := analytics.CheckWindow(days); err != nil {
		return err
	}
	a, err := buildApp()
	if err != nil {
		return err
	}
	ov, err := a.Client.AnalyticsOverview(context.Background(), days)
	if err != nil {
		return errors.Wrap(err, "analytics")
	}

	out := cmd.OutOrStdout()
	d := analytics.Reshape(ov)
	if outputFormat(cmd) == "json" {
		return printJSON(out, d)
	}
	printDashboard(out, days, d)
	return nil
}

func printDashboard(w io.Writer, days int, d analytics.Dashboard) {
	k := d.KPIs
	fmt.Fprintf(w, "Last %d days", days)
	if d.Since != "" {
		fmt.Fprintf(w, " (since %s)", d.Since)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Products %d  Users %d  Clicks %d  Purchases %d\n", k.Products, k.Users, k.Clicks, k.Purchases)
	fmt.Fprintf(w, "  Conversion %s  Recommendation CTR %s\n", k.ConversionRate, k.RecommendationCTR)
	fmt.Fprintf(w, "  Recommendation clicks %d  Search clicks %d  Alerts triggered %d\n",
		k.RecommendationClicks, k.SearchClicks, k.RecentAlerts)
	if k.TopCategories != "" {
		fmt.Fprintf(w, "  Top categories: %s\n", k.TopCategories)
	}

	printPoints(w, "Clicks by platform", d.ClicksByPlatform)
	printPoints(w, "Products by platform", d.ProductsByPlatform)
	if len(d.ClickSources) > 0 {
		fmt.Fprintln(w, "\nClick sources")
		for _, s := range d.ClickSources {
			fmt.Fprintf(w, "  %-16s %6d  %5.1f%%\n", s.Label, s.Value, s.Percent)
		}
	}
	if len(d.PriceStats) > 0 {
		fmt.Fprintln(w, "\nPrices by platform (mean / median)")
		for _, p := range d.PriceStats {
			fmt.Fprintf(w, "  %-10s %12s / %s\n", p.Platform, analytics.FormatINR(p.Mean), analytics.FormatINR(p.Median))
		}
	}
}

func printPoints(w io.Writer, title string, pts []analytics.Point) {
	if len(pts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, p := range pts {
		fmt.Fprintf(w, "  %-10s %6d\n", p.Label, p.Value)
	}
}

func runPriceHistory(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	history, err := a.Tracker.PriceHistory(context.Background(), models.ProductID(args[0]))
	if err != nil {
		return errors.Wrap(err, "price history")
	}

	out := cmd.OutOrStdout()
	trend := analytics.PriceTrend(history)
	if outputFormat(cmd) == "json" {
		return printJSON(out, trend)
	}
	if len(trend) == 0 {
		fmt.Fprintln(out, "No price history yet.")
		return nil
	}
	for _, p := range trend {
		fmt.Fprintf(out, "  %-7s %12s\n", p.Label, analytics.FormatINR(p.Price))
	}
	return nil
}

func runAlerts(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if err := signedIn(context.Background(), a); err != nil {
		return err
	}
	alerts, err := a.Tracker.Alerts(context.Background())
	if err != nil {
		return errors.Wrap(err, "alerts")
	}

	out := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return printJSON(out, alerts)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No price alerts.")
		return nil
	}
	for i, al := range alerts {
		printAlert(out, i+1, al)
	}
	return nil
}

func runAlertCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if err := signedIn(context.Background(), a); err != nil {
		return err
	}
	target, _ := cmd.Flags().GetFloat64("target")
	email, _ := cmd.Flags().GetString("email")
	al, err := a.Tracker.CreateAlert(context.Background(), models.ProductID(args[0]), target, email)
	if err != nil {
		return errors.Wrap(err, "create alert")
	}
	if outputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), al)
	}
	printAlert(cmd.OutOrStdout(), 1, *al)
	return nil
}

func printAlert(w io.Writer, n int, al models.PriceAlert) {
	name := "product " + al.ProductID.String()
	if al.Product != nil {
		name = al.Product.DisplayName()
	}
	state := "active"
	switch {
	case al.TriggeredAt != "":
		state = "triggered " + al.TriggeredAt
	case !al.IsActive:
		state = "inactive"
	}
	fmt.Fprintf(w, " %d. %s  below %s  (%s)\n", n, name, analytics.FormatINR(al.TargetPrice), state)
}
