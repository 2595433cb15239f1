// Package off implements the Open Food Facts API client. Every
// operation runs its validation stages first, builds the request from
// validated inputs, performs a single transport call, and classifies
// any failure into the structured error taxonomy.
package off

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/request"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// userAgent identifies this client to the upstream API. Open Food Facts
// asks writers to send a recognizable agent string.
const userAgent = "OpenFoodFactsClient/1.0.0"

// maxErrorBodyBytes caps how much of an upstream error body is read for
// debug logging.
const maxErrorBodyBytes = 2048

// Client talks to the Open Food Facts API on behalf of exactly one
// principal. Credentials set on a client are visible to every holder of
// the instance, so construct one client per principal or session and
// never share it across trust boundaries.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	insightURL  string
	credentials *domain.Credentials
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a client for the given endpoints. The base endpoint
// must use HTTPS; construction fails otherwise. insightURL is the
// Robotoff host for random insights.
func NewClient(baseURL, insightURL string) (*Client, error) {
	if err := validate.SecureEndpoint(baseURL); err != nil {
		return nil, err
	}

	// Open Food Facts asks for at most 100 product queries per minute.
	limiter := rate.NewLimiter(rate.Limit(100.0/60.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		insightURL:  strings.TrimRight(insightURL, "/"),
		rateLimiter: limiter,
	}, nil
}

// SetDebug toggles verbose request/response logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// debugLog logs only when debug mode is enabled.
func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		log.Printf("[OFF] "+format, args...)
	}
}

// SetCredentials stores the credential pair used by write operations.
// Both values are trimmed and must be non-empty. The pair lives only on
// this instance and is never persisted.
func (c *Client) SetCredentials(userID, password string) error {
	userID = strings.TrimSpace(userID)
	password = strings.TrimSpace(password)
	if userID == "" || password == "" {
		return apierr.New(apierr.MissingInput, "Credentials must include both a user ID and password")
	}
	c.credentials = &domain.Credentials{UserID: userID, Password: password}
	return nil
}

// HasCredentials reports whether a credential pair is set.
func (c *Client) HasCredentials() bool {
	return c.credentials != nil
}

// SetBaseURL replaces the base endpoint. The transport guard re-checks
// the current value before any credentialed request, so a swap to an
// unencrypted endpoint is caught at the point of use.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// do executes one HTTP request with the fixed User-Agent, waiting on
// the rate limiter first. Transport failures come back unclassified;
// each operation wraps them with its own prefix.
func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.debugLog("%s %s", method, reqURL)
	return c.httpClient.Do(req)
}

// statusError classifies a non-2xx upstream response, draining a capped
// slice of the body for debug logging first.
func (c *Client) statusError(resp *http.Response) *apierr.Error {
	body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
	c.debugLog("upstream error - status: %d, body: %s", resp.StatusCode, string(body))
	return apierr.New(apierr.API, fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)).
		WithStatus(resp.StatusCode)
}

// readLimitedBody reads at most limit bytes from r.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// productEnvelope is the lookup response wrapper around the nested
// product object.
type productEnvelope struct {
	Status  int            `json:"status"`
	Product domain.Product `json:"product"`
}

// GetProduct looks up one product by full barcode and returns the fixed
// field subset of the nested product object.
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	if err := validate.Barcode(barcode, false); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s", c.baseURL, barcode)
	resp, err := c.do(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to fetch product", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, apierr.Wrap(apierr.InvalidResponse, "Failed to fetch product", err)
	}

	product := envelope.Product
	return &product, nil
}

// SearchProducts queries the search endpoint with the given criteria
// and returns the full decoded response. When criteria.Fields is set,
// each entry of the products array is projected down to those keys.
func (c *Client) SearchProducts(ctx context.Context, criteria *domain.SearchCriteria) (map[string]any, error) {
	params, err := request.SearchQuery(criteria)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())
	resp, err := c.do(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to search products", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp).WithDetail("API request failed")
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apierr.New(apierr.InvalidResponse, "Invalid response format")
	}
	result, ok := decoded.(map[string]any)
	if !ok || len(result) == 0 {
		// Passed through unwrapped: callers of search distinguish a
		// malformed body from a transport or status failure.
		return nil, apierr.New(apierr.InvalidResponse, "Invalid response format")
	}

	if criteria != nil && criteria.Fields != nil {
		if products, ok := result["products"].([]any); ok {
			result["products"] = request.ProjectFieldSlice(products, criteria.Fields)
		}
	}
	return result, nil
}

// AddProduct creates or amends a product. Requires credentials; fails
// before any network access when none are set.
func (c *Client) AddProduct(ctx context.Context, data *domain.NewProductData) (*domain.WriteResult, error) {
	if c.credentials == nil {
		return nil, apierr.New(apierr.CredentialsRequired, "Credentials required for adding products")
	}
	if err := validate.SecureForCredentials(c.baseURL); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apierr.New(apierr.MissingInput, "Product data is required")
	}
	if err := validate.Barcode(data.Code, false); err != nil {
		return nil, err
	}

	body, contentType, err := request.ProductForm(data, *c.credentials)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/cgi/product_jqm2.pl", c.baseURL)
	resp, err := c.do(ctx, http.MethodPost, reqURL, body, contentType)
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to add product", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	var result domain.WriteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierr.Wrap(apierr.InvalidResponse, "Failed to add product", err)
	}
	return &result, nil
}

// UploadPhoto attaches an image to a product under the given target
// slot. Requires credentials; the image passes content validation
// (declared type, size ceiling, signature sniff) before any bytes go
// on the wire.
func (c *Client) UploadPhoto(ctx context.Context, barcode string, image validate.Asset, target *domain.PhotoTarget) (*domain.WriteResult, error) {
	if c.credentials == nil {
		return nil, apierr.New(apierr.CredentialsRequired, "Credentials required for uploading photos")
	}
	if err := validate.SecureForCredentials(c.baseURL); err != nil {
		return nil, err
	}
	if err := validate.Barcode(barcode, false); err != nil {
		return nil, err
	}
	if err := request.ValidatePhotoTarget(target); err != nil {
		return nil, err
	}
	// Stream-only assets are buffered once here, so the signature sniff
	// below does not consume bytes the upload body still needs.
	image, err := validate.Materialize(image)
	if err != nil {
		return nil, err
	}
	if err := validate.Image(ctx, image); err != nil {
		return nil, err
	}

	body, contentType, err := request.PhotoForm(barcode, image, target, *c.credentials)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/cgi/product_image_upload.pl", c.baseURL)
	resp, err := c.do(ctx, http.MethodPost, reqURL, body, contentType)
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to upload photo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	var result domain.WriteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierr.Wrap(apierr.InvalidResponse, "Failed to upload photo", err)
	}
	return &result, nil
}

// GetTaxonomy fetches one of the static taxonomy datasets (additives,
// allergens, brands, ...) published as JSON.
func (c *Client) GetTaxonomy(ctx context.Context, taxonomyType string) (map[string]any, error) {
	if strings.TrimSpace(taxonomyType) == "" {
		return nil, apierr.New(apierr.MissingInput, "Taxonomy type is required")
	}

	reqURL := fmt.Sprintf("%s/data/taxonomies/%s.json", c.baseURL, url.PathEscape(taxonomyType))
	resp, err := c.do(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to fetch taxonomy", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	var taxonomy map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&taxonomy); err != nil {
		return nil, apierr.Wrap(apierr.InvalidResponse, "Failed to fetch taxonomy", err)
	}
	return taxonomy, nil
}

// GetAdditives is a convenience wrapper over GetTaxonomy.
func (c *Client) GetAdditives(ctx context.Context) (map[string]any, error) {
	return c.GetTaxonomy(ctx, "additives")
}

// GetAllergens is a convenience wrapper over GetTaxonomy.
func (c *Client) GetAllergens(ctx context.Context) (map[string]any, error) {
	return c.GetTaxonomy(ctx, "allergens")
}

// GetBrands is a convenience wrapper over GetTaxonomy.
func (c *Client) GetBrands(ctx context.Context) (map[string]any, error) {
	return c.GetTaxonomy(ctx, "brands")
}

// GetRandomInsight fetches random annotation questions from the
// Robotoff host. count defaults to 1; lang is optional.
func (c *Client) GetRandomInsight(ctx context.Context, count int, lang string) (*domain.InsightResponse, error) {
	if count <= 0 {
		count = 1
	}
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if lang != "" {
		params.Set("lang", lang)
	}

	reqURL := fmt.Sprintf("%s/api/v1/questions/random?%s", c.insightURL, params.Encode())
	resp, err := c.do(ctx, http.MethodGet, reqURL, nil, "")
	if err != nil {
		return nil, apierr.Wrap(apierr.Network, "Failed to fetch insights", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	var insights domain.InsightResponse
	if err := json.NewDecoder(resp.Body).Decode(&insights); err != nil {
		return nil, apierr.Wrap(apierr.InvalidResponse, "Failed to fetch insights", err)
	}
	return &insights, nil
}
