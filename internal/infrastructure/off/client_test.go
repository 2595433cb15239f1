package off

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01}

// newTestClient builds a client against a TLS test server, trusting the
// server's certificate. The client only accepts HTTPS endpoints, so all
// wire tests run over httptest.NewTLSServer.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(server.URL, server.URL)
	require.NoError(t, err)
	client.httpClient = server.Client()
	return client
}

// parseMultipart decodes a multipart request body into field values and
// file contents.
func parseMultipart(t *testing.T, r *http.Request) (map[string]string, map[string][]byte) {
	t.Helper()

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	reader := multipart.NewReader(r.Body, params["boundary"])

	fields := map[string]string{}
	files := map[string][]byte{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FileName() != "" {
			files[part.FormName()] = data
		} else {
			fields[part.FormName()] = string(data)
		}
	}
	return fields, files
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")

	require.NoError(t, err)
	assert.Equal(t, "https://world.openfoodfacts.org", client.baseURL)
	assert.Equal(t, "https://robotoff.openfoodfacts.org", client.insightURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.HasCredentials())
}

func TestNewClient_RejectsInsecureEndpoint(t *testing.T) {
	client, err := NewClient("http://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")

	assert.Nil(t, client)
	assert.True(t, apierr.IsKind(err, apierr.InsecureTransport))
	assert.EqualError(t, err, "insecure_transport: HTTPS is required for secure API access. Use https:// URLs only.")
}

func TestSetCredentials(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)

	require.NoError(t, client.SetCredentials("  user  ", "  pass  "))
	assert.True(t, client.HasCredentials())
	assert.Equal(t, "user", client.credentials.UserID)
	assert.Equal(t, "pass", client.credentials.Password)

	assert.Error(t, client.SetCredentials("", "pass"))
	assert.Error(t, client.SetCredentials("user", "   "))
}

func TestCredentialIsolationBetweenInstances(t *testing.T) {
	a, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)
	require.NoError(t, a.SetCredentials("alice", "secret"))

	b, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)

	assert.True(t, a.HasCredentials())
	assert.False(t, b.HasCredentials())
}

func TestGetProduct_Success(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": 1,
			"product": map[string]any{
				"code":         "3017620422003",
				"product_name": "Nutella",
				"brands":       "Ferrero",
				"quantity":     "400g",
				"categories":   "Spreads",
				"nova_group":   4, // not part of the projected subset
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	product, err := client.GetProduct(context.Background(), "3017620422003")

	require.NoError(t, err)
	assert.Equal(t, "3017620422003", product.Code)
	assert.Equal(t, "Nutella", product.ProductName)
	assert.Equal(t, "Ferrero", product.Brands)
	assert.Equal(t, "400g", product.Quantity)
	assert.Equal(t, "Spreads", product.Categories)
}

func TestGetProduct_InvalidBarcode_NoNetworkAccess(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.GetProduct(context.Background(), "not-a-barcode")

	assert.True(t, apierr.IsKind(err, apierr.FormatInvalid))
	assert.Zero(t, requests)
}

func TestGetProduct_APIError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.GetProduct(context.Background(), "12345678")

	assert.True(t, apierr.IsKind(err, apierr.API))
	assert.Equal(t, 404, apierr.StatusOf(err))
	assert.EqualError(t, err, "api_error: HTTP error! status: 404")
}

func TestGetProduct_NetworkError(t *testing.T) {
	client, err := NewClient("https://127.0.0.1:1", "https://127.0.0.1:1")
	require.NoError(t, err)

	_, err = client.GetProduct(context.Background(), "12345678")

	assert.True(t, apierr.IsKind(err, apierr.Network))
	assert.Contains(t, err.Error(), "Failed to fetch product")
}

func TestSearchProducts_WireShape(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("json"))
		assert.Equal(t, "process", q.Get("action"))
		assert.Equal(t, "chocolate", q.Get("search_terms"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("page_size"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"count": 1, "products": []any{}})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	result, err := client.SearchProducts(context.Background(), &domain.SearchCriteria{
		Terms:    "chocolate",
		Page:     2,
		PageSize: 20,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, result["count"])
}

func TestSearchProducts_FieldProjection(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count": 2,
			"products": []any{
				map[string]any{"code": "1", "product_name": "A", "brands": "X", "quantity": "1kg"},
				map[string]any{"code": "2", "product_name": "B", "labels": "organic"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	result, err := client.SearchProducts(context.Background(), &domain.SearchCriteria{
		Terms:  "milk",
		Fields: []string{"code", "product_name"},
	})

	require.NoError(t, err)
	products := result["products"].([]any)
	assert.Equal(t, map[string]any{"code": "1", "product_name": "A"}, products[0])
	assert.Equal(t, map[string]any{"code": "2", "product_name": "B"}, products[1])
}

func TestSearchProducts_NoFieldsPassesThrough(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"products": []any{
				map[string]any{"code": "1", "product_name": "A", "brands": "X"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	result, err := client.SearchProducts(context.Background(), &domain.SearchCriteria{Terms: "milk"})

	require.NoError(t, err)
	products := result["products"].([]any)
	assert.Equal(t, map[string]any{"code": "1", "product_name": "A", "brands": "X"}, products[0])
}

func TestSearchProducts_APIErrorCarriesDetail(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.SearchProducts(context.Background(), &domain.SearchCriteria{Terms: "milk"})

	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.API, apiErr.Kind)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "HTTP error! status: 500", apiErr.Message)
	assert.Equal(t, "API request failed", apiErr.Detail)
}

func TestSearchProducts_InvalidResponseFormat(t *testing.T) {
	bodies := []string{`[]`, `"just a string"`, `{}`, `null`, `not json`}

	for _, body := range bodies {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		client := newTestClient(t, server)
		_, err := client.SearchProducts(context.Background(), &domain.SearchCriteria{Terms: "milk"})
		server.Close()

		assert.True(t, apierr.IsKind(err, apierr.InvalidResponse), "body %q", body)
		assert.EqualError(t, err, "invalid_response_format: Invalid response format", "body %q", body)
	}
}

func TestAddProduct_RequiresCredentials(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.AddProduct(context.Background(), &domain.NewProductData{Code: "12345678"})

	assert.True(t, apierr.IsKind(err, apierr.CredentialsRequired))
	assert.EqualError(t, err, "credentials_required: Credentials required for adding products")
	assert.Zero(t, requests)
}

func TestAddProduct_RechecksTransportAtPointOfUse(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server)
	require.NoError(t, client.SetCredentials("user", "pass"))

	// Endpoint swapped to plain HTTP after construction.
	client.SetBaseURL("http://world.openfoodfacts.org")

	_, err := client.AddProduct(context.Background(), &domain.NewProductData{Code: "12345678"})

	assert.True(t, apierr.IsKind(err, apierr.InsecureTransport))
	assert.EqualError(t, err, "insecure_transport: Cannot send credentials over non-HTTPS connection. HTTPS is required for authenticated requests.")
	assert.Zero(t, requests)
}

func TestAddProduct_Success(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cgi/product_jqm2.pl", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		fields, _ := parseMultipart(t, r)
		assert.Equal(t, "3017620422003", fields["code"])
		assert.Equal(t, "user", fields["user_id"])
		assert.Equal(t, "pass", fields["password"])
		assert.Equal(t, "Ferrero", fields["brands"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.WriteResult{Status: 1, StatusVerbose: "fields saved"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	require.NoError(t, client.SetCredentials("user", "pass"))

	result, err := client.AddProduct(context.Background(), &domain.NewProductData{
		Code:   "3017620422003",
		Brands: "Ferrero",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Status)
	assert.Equal(t, "fields saved", result.StatusVerbose)
}

func TestAddProduct_InvalidBarcode(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)
	require.NoError(t, client.SetCredentials("user", "pass"))

	_, err = client.AddProduct(context.Background(), &domain.NewProductData{Code: "123"})

	assert.True(t, apierr.IsKind(err, apierr.FormatInvalid))
}

func TestUploadPhoto_RequiresCredentials(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)

	image := &validate.BytesAsset{Data: jpegBytes, Type: "image/jpeg"}
	_, err = client.UploadPhoto(context.Background(), "12345678", image, &domain.PhotoTarget{Field: "front", LanguageCode: "en"})

	assert.True(t, apierr.IsKind(err, apierr.CredentialsRequired))
	assert.EqualError(t, err, "credentials_required: Credentials required for uploading photos")
}

func TestUploadPhoto_InvalidField_NoNetworkAccess(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server)
	require.NoError(t, client.SetCredentials("user", "pass"))

	image := &validate.BytesAsset{Data: jpegBytes, Type: "image/jpeg"}
	_, err := client.UploadPhoto(context.Background(), "12345678", image, &domain.PhotoTarget{Field: "side", LanguageCode: "en"})

	assert.True(t, apierr.IsKind(err, apierr.FormatInvalid))
	assert.EqualError(t, err, "format_invalid: Invalid field type. Must be front, ingredients, or nutrition.")
	assert.Zero(t, requests)
}

func TestUploadPhoto_RejectsBadContent(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)
	require.NoError(t, client.SetCredentials("user", "pass"))

	avi := []byte{0x52, 0x49, 0x46, 0x46, 0x24, 0x00, 0x00, 0x00, 0x41, 0x56, 0x49, 0x20, 0x4C, 0x49, 0x53, 0x54}
	image := &validate.BytesAsset{Data: avi, Type: "image/webp"}
	_, err = client.UploadPhoto(context.Background(), "12345678", image, &domain.PhotoTarget{Field: "front", LanguageCode: "en"})

	assert.True(t, apierr.IsKind(err, apierr.ContentMismatch))
}

func TestUploadPhoto_Success(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/product_image_upload.pl", r.URL.Path)

		fields, files := parseMultipart(t, r)
		assert.Equal(t, "3017620422003", fields["code"])
		assert.Equal(t, "front_en", fields["imagefield"])
		assert.Equal(t, jpegBytes, files["imgupload_front_en"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.WriteResult{Status: 1, StatusVerbose: "image uploaded"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	require.NoError(t, client.SetCredentials("user", "pass"))

	image := &validate.BytesAsset{Data: jpegBytes, Type: "image/jpeg"}
	result, err := client.UploadPhoto(context.Background(), "3017620422003", image, &domain.PhotoTarget{Field: "front", LanguageCode: "en"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Status)
}

// streamAsset exposes its content through a plain reader only, like an
// asset backed by a network stream.
type streamAsset struct {
	r    io.Reader
	mime string
	size int64
}

func (a *streamAsset) ContentType() string        { return a.mime }
func (a *streamAsset) Size() int64                { return a.size }
func (a *streamAsset) Read(p []byte) (int, error) { return a.r.Read(p) }

func TestUploadPhoto_StreamAssetKeepsFullContent(t *testing.T) {
	content := append(append([]byte{}, jpegBytes...), []byte("trailing scan data")...)

	var received []byte
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, files := parseMultipart(t, r)
		received = files["imgupload_front_en"]

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.WriteResult{Status: 1, StatusVerbose: "image uploaded"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	require.NoError(t, client.SetCredentials("user", "pass"))

	image := &streamAsset{r: bytes.NewReader(content), mime: "image/jpeg", size: int64(len(content))}
	_, err := client.UploadPhoto(context.Background(), "3017620422003", image, &domain.PhotoTarget{Field: "front", LanguageCode: "en"})

	require.NoError(t, err)
	// The signature sniff must not consume the leading bytes of the
	// upload body.
	assert.Equal(t, content, received)
}

func TestGetTaxonomy(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/taxonomies/additives.json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"en:e100":{"name":{"en":"Curcumin"}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	taxonomy, err := client.GetTaxonomy(context.Background(), "additives")

	require.NoError(t, err)
	assert.Contains(t, taxonomy, "en:e100")
}

func TestGetTaxonomy_EmptyType(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)

	_, err = client.GetTaxonomy(context.Background(), "  ")

	assert.True(t, apierr.IsKind(err, apierr.MissingInput))
}

func TestTaxonomyConvenienceWrappers(t *testing.T) {
	var paths []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()

	client.GetAdditives(ctx)
	client.GetAllergens(ctx)
	client.GetBrands(ctx)

	assert.Equal(t, []string{
		"/data/taxonomies/additives.json",
		"/data/taxonomies/allergens.json",
		"/data/taxonomies/brands.json",
	}, paths)
}

func TestGetRandomInsight(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/questions/random", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		assert.Equal(t, "fr", r.URL.Query().Get("lang"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.InsightResponse{
			Status: "found",
			Questions: []domain.Insight{
				{Barcode: "3017620422003", Type: "add-binary", Question: "Does the product belong to this category?"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	insights, err := client.GetRandomInsight(context.Background(), 2, "fr")

	require.NoError(t, err)
	assert.Equal(t, "found", insights.Status)
	assert.Len(t, insights.Questions, 1)
}

func TestGetRandomInsight_CountDefaultsToOne(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		assert.Empty(t, r.URL.Query().Get("lang"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.InsightResponse{Status: "found"})
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.GetRandomInsight(context.Background(), 0, "")

	require.NoError(t, err)
}

func TestSetDebug(t *testing.T) {
	client, err := NewClient("https://world.openfoodfacts.org", "https://robotoff.openfoodfacts.org")
	require.NoError(t, err)

	assert.False(t, client.debug)
	client.SetDebug(true)
	assert.True(t, client.debug)
}
