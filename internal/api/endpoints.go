package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lukman83/buysmart/internal/models"
	"github.com/lukman83/buysmart/internal/platform"
)

// SearchTopN is the result budget every search asks for.
const SearchTopN = 50

// SearchFilters is the outbound filter object. A nil field means "no
// constraint" and is left out of the payload entirely.
type SearchFilters struct {
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
}

type SearchRequest struct {
	Query               string        `json:"query"`
	Filters             SearchFilters `json:"filters"`
	TopN                int           `json:"top_n"`
	FastMode            bool          `json:"fast_mode"`
	IncludeLiveScraping bool          `json:"include_live_scraping"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Count   *int             `json:"count"`
	Results []models.Product `json:"results"`
	Message string           `json:"message"`
	Sources []string         `json:"sources"`
}

// Search runs one aggregated marketplace search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, "search", http.MethodPost, []string{"search"}, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the global catalogue summary.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, "stats", http.MethodGet, []string{"stats"}, nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type userResponse struct {
	User models.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, "auth.register", http.MethodPost, []string{"auth", "register"}, nil,
		registerRequest{Name: name, Email: email, Password: password}, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, "auth.login", http.MethodPost, []string{"auth", "login"}, nil,
		loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, RequestError{Op: "auth.login", Status: http.StatusOK, Message: "response carried no token"}
	}
	return &resp, nil
}

// Me returns the profile behind the current credential.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp userResponse
	if err := c.do(ctx, "auth.me", http.MethodGet, []string{"auth", "me"}, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "auth.logout", http.MethodPost, []string{"auth", "logout"}, nil, nil, nil)
}

type TrendingResponse struct {
	Since string           `json:"since"`
	Items []models.Product `json:"items"`
}

// TrendingProducts returns products ranked by clicks over the last days.
func (c *Client) TrendingProducts(ctx context.Context, days, limit int) (*TrendingResponse, error) {
	var resp TrendingResponse
	err := c.do(ctx, "trending.products", http.MethodGet, []string{"trending", "products"},
		windowQuery(days, limit), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrendingSearches returns the most frequent queries over the last days.
func (c *Client) TrendingSearches(ctx context.Context, days, limit int) ([]models.TrendingSearch, error) {
	var resp struct {
		Items []models.TrendingSearch `json:"items"`
	}
	err := c.do(ctx, "trending.searches", http.MethodGet, []string{"trending", "searches"},
		windowQuery(days, limit), nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func windowQuery(days, limit int) url.Values {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

type RedirectRequest struct {
	ProductID   models.ProductID `json:"product_id"`
	Source      string           `json:"source"`
	SearchQuery string           `json:"search_query,omitempty"`
	ProductData *models.Product  `json:"product_data,omitempty"`
}

// CreateRedirect registers a tracked click and returns the redirect link,
// which may be relative to the API origin.
func (c *Client) CreateRedirect(ctx context.Context, req RedirectRequest) (string, error) {
	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := c.do(ctx, "redirect.create", http.MethodPost, []string{"redirect", "create"}, nil, req, &resp); err != nil {
		return "", err
	}
	if resp.RedirectURL == "" {
		return "", RequestError{Op: "redirect.create", Status: http.StatusOK, Message: "response carried no redirect_url"}
	}
	return resp.RedirectURL, nil
}

type wishlistAddRequest struct {
	ProductID   models.ProductID `json:"product_id"`
	ProductData *models.Product  `json:"product_data,omitempty"`
}

func (c *Client) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	var resp struct {
		Items []models.WishlistItem `json:"items"`
	}
	if err := c.do(ctx, "wishlist.list", http.MethodGet, []string{"wishlist"}, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AddToWishlist saves a product. data is optional and lets the backend store
// live results it has not persisted yet.
func (c *Client) AddToWishlist(ctx context.Context, id models.ProductID, data *models.Product) error {
	return c.do(ctx, "wishlist.add", http.MethodPost, []string{"wishlist"}, nil,
		wishlistAddRequest{ProductID: id, ProductData: data}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, id models.ProductID) error {
	return c.do(ctx, "wishlist.remove", http.MethodDelete,
		[]string{"wishlist", url.PathEscape(id.String())}, nil, nil, nil)
}

type PurchaseRequest struct {
	ProductID   models.ProductID  `json:"product_id"`
	Platform    platform.Platform `json:"platform"`
	Status      string            `json:"status"`
	ProductData *models.Product   `json:"product_data,omitempty"`
}

func (c *Client) Purchases(ctx context.Context) ([]models.PurchaseRecord, error) {
	var resp struct {
		Items []models.PurchaseRecord `json:"items"`
	}
	if err := c.do(ctx, "purchases.list", http.MethodGet, []string{"purchases"}, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) ConfirmPurchase(ctx context.Context, req PurchaseRequest) error {
	return c.do(ctx, "purchases.confirm", http.MethodPost, []string{"purchases", "confirm"}, nil, req, nil)
}

func (c *Client) SearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var resp struct {
		Items []models.SearchHistoryEntry `json:"items"`
	}
	if err := c.do(ctx, "history.search", http.MethodGet, []string{"history", "search"}, q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AnalyticsOverview fetches the server aggregates for a trailing window.
func (c *Client) AnalyticsOverview(ctx context.Context, days int) (*models.AnalyticsOverview, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	var ov models.AnalyticsOverview
	if err := c.do(ctx, "analytics.overview", http.MethodGet, []string{"analytics", "overview"}, q, nil, &ov); err != nil {
		return nil, err
	}
	return &ov, nil
}

// PriceHistory returns recorded prices, newest first as the server sends them.
func (c *Client) PriceHistory(ctx context.Context, id models.ProductID) ([]models.PricePoint, error) {
	var resp struct {
		Items []models.PricePoint `json:"items"`
	}
	err := c.do(ctx, "products.price_history", http.MethodGet,
		[]string{"products", url.PathEscape(id.String()), "price-history"}, nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

type AlertRequest struct {
	ProductID   models.ProductID `json:"product_id"`
	TargetPrice float64          `json:"target_price"`
	Email       string           `json:"email,omitempty"`
}

func (c *Client) PriceAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	var resp struct {
		Items []models.PriceAlert `json:"items"`
	}
	if err := c.do(ctx, "alerts.list", http.MethodGet, []string{"alerts", "price-drop"}, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreatePriceAlert(ctx context.Context, req AlertRequest) (*models.PriceAlert, error) {
	var resp struct {
		Alert models.PriceAlert `json:"alert"`
	}
	if err := c.do(ctx, "alerts.create", http.MethodPost, []string{"alerts", "price-drop"}, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Alert, nil
}
