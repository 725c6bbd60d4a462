package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lukman83/buysmart/internal/analytics"
	"github.com/lukman83/buysmart/internal/app"
	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
	"github.com/lukman83/buysmart/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// tools holds the wired client the handlers call into.
type tools struct {
	app *app.App
}

func registerTools(s *server.MCPServer, a *app.App) {
	t := &tools{app: a}

	// search_products
	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search products across Amazon, Flipkart, Meesho and Myntra"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to search for"),
		),
		mcp.WithNumber("min_price",
			mcp.Description("Minimum price in rupees"),
		),
		mcp.WithNumber("max_price",
			mcp.Description("Maximum price in rupees"),
		),
		mcp.WithString("platforms",
			mcp.Description("Comma-separated platforms to include (default: all)"),
		),
		mcp.WithNumber("min_rating",
			mcp.Description("Minimum rating, 0-5"),
		),
		mcp.WithBoolean("live",
			mcp.Description("Include live scraping; much slower (default: false)"),
		),
	)
	s.AddTool(searchTool, t.handleSearchProducts)

	// get_trending
	trendingTool := mcp.NewTool("get_trending",
		mcp.WithDescription("Get the most clicked products over a trailing window"),
		mcp.WithNumber("days",
			mcp.Description("Trailing window in days (default: 7, max: 30)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of products (default: 8, max: 50)"),
		),
		mcp.WithBoolean("searches",
			mcp.Description("Return trending search queries instead of products"),
		),
	)
	s.AddTool(trendingTool, t.handleGetTrending)

	// analytics_overview
	analyticsTool := mcp.NewTool("analytics_overview",
		mcp.WithDescription("Get click, purchase and price analytics for a window"),
		mcp.WithNumber("days",
			mcp.Description("Trailing window: 7, 30 or 90 (default: 30)"),
		),
	)
	s.AddTool(analyticsTool, t.handleAnalyticsOverview)

	// price_history
	historyTool := mcp.NewTool("price_history",
		mcp.WithDescription("Get a product's recorded prices, oldest first"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product id from a search or trending result"),
		),
	)
	s.AddTool(historyTool, t.handlePriceHistory)
}

func (t *tools) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	f := search.Filters{
		MinPrice:            optFloat(request, "min_price"),
		MaxPrice:            optFloat(request, "max_price"),
		MinRating:           optFloat(request, "min_rating"),
		IncludeLiveScraping: request.GetBool("live", t.app.Config.IncludeLiveScraping),
	}
	for _, name := range strings.Split(request.GetString("platforms", ""), ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		p, ok := platform.ParseStrict(name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown platform %q", name)), nil
		}
		f.Platforms = append(f.Platforms, p)
	}

	res, err := t.newSearch().Search(ctx, query, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}
	return jsonResult(struct {
		search.Result
		ByPlatform []analytics.PlatformSummary
	}{res, analytics.GroupByPlatform(res.Products)})
}

// newSearch returns an orchestrator for one tool call. Tool calls are
// independent requests, so one must never supersede another the way a newer
// query replaces an older one in a single view.
func (t *tools) newSearch() *search.Orchestrator {
	return search.NewOrchestrator(t.app.Client, search.Options{
		Timeout: t.app.Config.SearchTimeout,
		Logger:  t.app.Logger.Named("mcp.search"),
		Metrics: t.app.Metrics,
	})
}

func (t *tools) handleGetTrending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := request.GetInt("days", 0)
	limit := request.GetInt("limit", 0)

	if request.GetBool("searches", false) {
		items, err := t.app.Trending.Searches(ctx, days, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("trending error: %v", err)), nil
		}
		return jsonResult(items)
	}

	res, err := t.app.Trending.Load(ctx, days, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trending error: %v", err)), nil
	}
	return jsonResult(res)
}

func (t *tools) handleAnalyticsOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := request.GetInt("days", 30)
	if err := analytics.CheckWindow(days); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ov, err := t.app.Client.AnalyticsOverview(ctx, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analytics error: %v", err)), nil
	}
	return jsonResult(analytics.Reshape(ov))
}

func (t *tools) handlePriceHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("product_id", ""))
	if id == "" {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	history, err := t.app.Tracker.PriceHistory(ctx, models.ProductID(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("price history error: %v", err)), nil
	}
	return jsonResult(analytics.PriceTrend(history))
}

// optFloat distinguishes an absent number from zero.
func optFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	return search.Float(request.GetFloat(key, 0))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
