package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	api domain.ProductAPI
}

// NewHandler creates a new HTTP handler around the product service.
func NewHandler(api domain.ProductAPI) *Handler {
	return &Handler{api: api}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "open-food-facts-gateway",
		"version": "1.0.0",
	})
}

// GetProduct handles GET /api/v1/product/:barcode
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.api.GetProduct(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// searchRequest is the JSON body of a search call. Typed fields catch
// wrongly-typed values at the boundary before the criteria are built.
type searchRequest struct {
	Terms       json.RawMessage `json:"terms"`
	Barcode     string          `json:"barcode"`
	MatchMode   string          `json:"match_mode"`
	TagTypes    []string        `json:"tag_types"`
	TagValues   []string        `json:"tag_values"`
	TagContains []string        `json:"tag_contains"`
	Additives   string          `json:"additives"`
	PalmOil     string          `json:"palm_oil"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	Fields      []string        `json:"fields"`
}

// SearchProducts handles POST /api/v1/products/search
func (h *Handler) SearchProducts(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.New(apierr.FormatInvalid, "Invalid search request body"))
		return
	}

	// terms arrives as raw JSON so a non-string value can be reported
	// as a type mismatch rather than a generic bind failure.
	var terms string
	if len(req.Terms) > 0 && string(req.Terms) != "null" {
		if err := json.Unmarshal(req.Terms, &terms); err != nil {
			writeError(c, apierr.New(apierr.TypeMismatch, "Search input must be a string"))
			return
		}
	}

	criteria := &domain.SearchCriteria{
		Terms:       terms,
		Barcode:     req.Barcode,
		MatchMode:   req.MatchMode,
		TagTypes:    req.TagTypes,
		TagValues:   req.TagValues,
		TagContains: req.TagContains,
		Additives:   req.Additives,
		PalmOil:     req.PalmOil,
		Page:        req.Page,
		PageSize:    req.PageSize,
		Fields:      req.Fields,
	}

	result, err := h.api.SearchProducts(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// addProductRequest is the JSON body for product creation.
type addProductRequest struct {
	Code   json.RawMessage `json:"code" binding:"required"`
	Brands string          `json:"brands"`
	Labels string          `json:"labels"`
}

// AddProduct handles POST /api/v1/products
func (h *Handler) AddProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.New(apierr.MissingInput, "Product code is required"))
		return
	}

	var code string
	if err := json.Unmarshal(req.Code, &code); err != nil {
		writeError(c, apierr.New(apierr.TypeMismatch, "Barcode must be a string"))
		return
	}

	result, err := h.api.AddProduct(c.Request.Context(), &domain.NewProductData{
		Code:   code,
		Brands: req.Brands,
		Labels: req.Labels,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadPhoto handles POST /api/v1/products/:barcode/photos with a
// multipart form carrying the image file plus field and language_code
// values.
func (h *Handler) UploadPhoto(c *gin.Context) {
	target := &domain.PhotoTarget{
		Field:        c.PostForm("field"),
		LanguageCode: c.PostForm("language_code"),
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		writeError(c, apierr.New(apierr.MissingInput, "Image file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, apierr.New(apierr.MissingInput, "Image file is required"))
		return
	}
	defer file.Close()

	// multipart.File implements io.ReaderAt, so validation stays within
	// the signature bytes.
	asset := &uploadAsset{
		file: file,
		mime: fileHeader.Header.Get("Content-Type"),
		size: fileHeader.Size,
	}

	result, err := h.api.UploadPhoto(c.Request.Context(), c.Param("barcode"), asset, target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTaxonomy handles GET /api/v1/taxonomy/:type
func (h *Handler) GetTaxonomy(c *gin.Context) {
	taxonomy, err := h.api.GetTaxonomy(c.Request.Context(), c.Param("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taxonomy)
}

// GetRandomInsight handles GET /api/v1/insights/random
func (h *Handler) GetRandomInsight(c *gin.Context) {
	count := 1
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(c, apierr.New(apierr.FormatInvalid, "count must be a positive integer"))
			return
		}
		count = parsed
	}

	insights, err := h.api.GetRandomInsight(c.Request.Context(), count, c.Query("lang"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, insights)
}

// uploadAsset adapts a multipart upload to the validation Asset
// contract.
type uploadAsset struct {
	file interface {
		ReadAt(p []byte, off int64) (int, error)
	}
	mime string
	size int64
}

func (a *uploadAsset) ContentType() string { return a.mime }
func (a *uploadAsset) Size() int64         { return a.size }
func (a *uploadAsset) ReadAt(p []byte, off int64) (int, error) {
	return a.file.ReadAt(p, off)
}

var _ validate.Asset = (*uploadAsset)(nil)
