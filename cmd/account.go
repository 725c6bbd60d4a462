package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/lukman83/buysmart/internal/analytics"
	"github.com/lukman83/buysmart/internal/app"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
	"github.com/lukman83/buysmart/internal/userdata"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "List your wishlist",
	Args:  cobra.NoArgs,
	RunE:  runWishlist,
}

var wishlistAddCmd = &cobra.Command{
	Use:   "add [product-id]",
	Short: "Save a product to your wishlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runWishlistAdd,
}

var wishlistRemoveCmd = &cobra.Command{
	Use:   "remove [product-id]",
	Short: "Remove a product from your wishlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runWishlistRemove,
}

var purchasesCmd = &cobra.Command{
	Use:   "purchases",
	Short: "List your recorded purchases",
	Args:  cobra.NoArgs,
	RunE:  runPurchases,
}

var purchasesConfirmCmd = &cobra.Command{
	Use:   "confirm [product-id]",
	Short: "Record that you bought a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runPurchaseConfirm,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your recent searches",
	RunE:  runHistory,
}

func init() {
	purchasesConfirmCmd.Flags().String("platform", "", "Marketplace the product was bought on")
	purchasesConfirmCmd.Flags().String("status", userdata.DefaultPurchaseStatus, "Purchase status")
	historyCmd.Flags().Int("limit", 20, "Number of searches to show (max 50)")

	wishlistCmd.AddCommand(wishlistAddCmd, wishlistRemoveCmd)
	purchasesCmd.AddCommand(purchasesConfirmCmd)
	rootCmd.AddCommand(wishlistCmd, purchasesCmd, historyCmd)
}

// openPanel signs in from the stored credential and returns the loaded
// collections. Bootstrap's authenticated hook refreshes them.
func openPanel() (*app.App, userdata.Snapshot, error) {
	a, err := buildApp()
	if err != nil {
		return nil, userdata.Snapshot{}, err
	}
	if s := a.Session.Bootstrap(context.Background()); s.Anonymous() {
		return nil, userdata.Snapshot{}, errNotSignedIn
	}
	return a, a.Panel.Snapshot(), nil
}

// mutatePanel signs in without loading the collections, since every panel
// mutation reloads them afterwards.
func mutatePanel() (*app.App, error) {
	a, err := buildApp()
	if err != nil {
		return nil, err
	}
	if err := signedIn(context.Background(), a); err != nil {
		return nil, err
	}
	return a, nil
}

func loadFailed(snap userdata.Snapshot, name string) error {
	if slices.Contains(snap.Failed, name) {
		return errors.Errorf("could not load %s, try again later", name)
	}
	return nil
}

func runWishlist(cmd *cobra.Command, args []string) error {
	_, snap, err := openPanel()
	if err != nil {
		return err
	}
	if err := loadFailed(snap, userdata.Wishlist); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return printJSON(out, snap.Wishlist)
	}
	printWishlist(out, snap.Wishlist)
	return nil
}

func runWishlistAdd(cmd *cobra.Command, args []string) error {
	a, err := mutatePanel()
	if err != nil {
		return err
	}
	snap, err := a.Panel.AddToWishlist(context.Background(), models.Product{ID: models.ProductID(args[0])})
	if err != nil {
		return errors.Wrap(err, "add to wishlist")
	}
	printWishlist(cmd.OutOrStdout(), snap.Wishlist)
	return nil
}

func runWishlistRemove(cmd *cobra.Command, args []string) error {
	a, err := mutatePanel()
	if err != nil {
		return err
	}
	snap, err := a.Panel.RemoveFromWishlist(context.Background(), models.ProductID(args[0]))
	if err != nil {
		return errors.Wrap(err, "remove from wishlist")
	}
	printWishlist(cmd.OutOrStdout(), snap.Wishlist)
	return nil
}

func printWishlist(w io.Writer, items []models.WishlistItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your wishlist is empty.")
		return
	}
	for i, it := range items {
		if it.Product == nil {
			fmt.Fprintf(w, " %d. product %s\n", i+1, it.ProductID)
			continue
		}
		fmt.Fprintf(w, " %d. %s  %s  |  %s  [%s]\n", i+1, it.Product.DisplayName(),
			analytics.FormatINR(it.Product.Price), it.Product.Platform, it.ProductID)
	}
}

func runPurchases(cmd *cobra.Command, args []string) error {
	_, snap, err := openPanel()
	if err != nil {
		return err
	}
	if err := loadFailed(snap, userdata.Purchases); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return printJSON(out, snap.Purchases)
	}
	printPurchases(out, snap.Purchases)
	return nil
}

func runPurchaseConfirm(cmd *cobra.Command, args []string) error {
	a, err := mutatePanel()
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("platform")
	status, _ := cmd.Flags().GetString("status")
	p := models.Product{ID: models.ProductID(args[0])}
	if name != "" {
		p.Platform = platform.Parse(name)
	}
	snap, err := a.Panel.ConfirmPurchase(context.Background(), p, status)
	if err != nil {
		return errors.Wrap(err, "confirm purchase")
	}
	printPurchases(cmd.OutOrStdout(), snap.Purchases)
	return nil
}

func printPurchases(w io.Writer, items []models.PurchaseRecord) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No purchases recorded.")
		return
	}
	for i, it := range items {
		name := "product " + it.ProductID.String()
		if it.Product != nil {
			name = it.Product.DisplayName()
		}
		fmt.Fprintf(w, " %d. %s  |  %s  |  %s  %s\n", i+1, name, it.Platform, it.Status, it.CreatedAt)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, snap, err := openPanel()
	if err != nil {
		return err
	}
	if err := loadFailed(snap, userdata.History); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	entries := snap.History
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No searches yet.")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(out, " %d. %s  (%d results)  %s\n", i+1, e.Query, e.ResultsCount, e.CreatedAt)
	}
	return nil
}
