package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/domain"
	"github.com/kahvecikaan/product-catalog/internal/events"
	"github.com/kahvecikaan/product-catalog/internal/files"
	"github.com/kahvecikaan/product-catalog/internal/repository"
	"github.com/kahvecikaan/product-catalog/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImageMaxBytes = 16

func newTestRouter(t *testing.T, ps service.ProductService, imageDir string) http.Handler {
	t.Helper()

	logger := hclog.NewNullLogger()
	store, err := files.NewLocal(imageDir, testImageMaxBytes)
	require.NoError(t, err)

	ih := NewImageHandler(ps, store, logger)
	return NewRouter(RouterOptions{
		Products:    NewProductHandler(ps, ih, logger),
		Images:      ih,
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:3000"},
	})
}

func newCatalogRouter(t *testing.T) http.Handler {
	t.Helper()

	h, _ := newCatalogRouterWithImages(t)
	return h
}

// newCatalogRouterWithImages also returns the directory images are stored in
func newCatalogRouterWithImages(t *testing.T) (http.Handler, string) {
	t.Helper()

	repo := repository.NewMemoryProductRepository()
	bus := events.NewEventBus[any]()
	t.Cleanup(bus.Close)

	ps := service.NewProductService(
		repo,
		domain.NewFactory(domain.NewValidation()),
		bus,
		hclog.NewNullLogger(),
	)

	imageDir := t.TempDir()
	return newTestRouter(t, ps, imageDir), imageDir
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func create(t *testing.T, h http.Handler, body string) domain.Product {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.Product](t, rec)
}

func TestCreateProduct(t *testing.T) {
	h := newCatalogRouter(t)

	rec := do(t, h, http.MethodPost, "/api/products", `{"name":"Widget","price":9.99,"currency":"USD","stock":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	p := decode[domain.Product](t, rec)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))

	// defaults are visible on the wire
	raw := decode[map[string]any](t, rec)
	assert.Equal(t, "", raw["description"])
	assert.Equal(t, "USD", raw["currency"])
	assert.Contains(t, raw, "createdAt")
	assert.Contains(t, raw, "updatedAt")
}

func TestCreateProductErrors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   string
		wantField  string
	}{
		{"Short name", `{"name":"W","price":1}`, http.StatusBadRequest, ErrorKindValidation, "name"},
		{"Missing price", `{"name":"Widget"}`, http.StatusBadRequest, ErrorKindValidation, "price"},
		{"Negative stock", `{"name":"Widget","price":1,"stock":-1}`, http.StatusBadRequest, ErrorKindValidation, "stock"},
		{"Bad image URL", `{"name":"Widget","price":1,"imageUrl":"nope"}`, http.StatusBadRequest, ErrorKindValidation, "imageUrl"},
		{"Wrong type", `{"name":"Widget","price":"cheap"}`, http.StatusBadRequest, ErrorKindValidation, "price"},
		{"Fractional stock", `{"name":"Widget","price":1,"stock":1.5}`, http.StatusBadRequest, ErrorKindValidation, "stock"},
		{"Null description", `{"name":"Widget","price":1,"description":null}`, http.StatusBadRequest, ErrorKindValidation, "description"},
		{"Not an object", `["Widget"]`, http.StatusBadRequest, ErrorKindValidation, ""},
		{"Malformed JSON", `{"name":`, http.StatusBadRequest, ErrorKindBadRequest, ""},
		{"Trailing data", `{"name":"Widget","price":1} {}`, http.StatusBadRequest, ErrorKindBadRequest, ""},
		{"Too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge, ErrorKindTooLarge, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newCatalogRouter(t)

			rec := do(t, h, http.MethodPost, "/api/products", tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tc.wantKind, resp.Error)
			if tc.wantField != "" {
				require.NotEmpty(t, resp.Issues)
				assert.Equal(t, tc.wantField, resp.Issues[0].Field)
			}

			list := decode[[]domain.Product](t, do(t, h, http.MethodGet, "/api/products", ""))
			assert.Empty(t, list, "rejected create must not store anything")
		})
	}
}

func TestGetProduct(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodGet, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[domain.Product](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	rec = do(t, h, http.MethodGet, "/api/products/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorKindNotFound, decode[ErrorResponse](t, rec).Error)
}

func TestListProducts(t *testing.T) {
	h := newCatalogRouter(t)

	rec := do(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, name := range []string{"A-product", "B-product", "C-product"} {
		create(t, h, `{"name":"`+name+`","price":1}`)
	}

	list := decode[[]domain.Product](t, do(t, h, http.MethodGet, "/api/products", ""))
	require.Len(t, list, 3)
	assert.Equal(t, "A-product", list[0].Name)
	assert.Equal(t, "B-product", list[1].Name)
	assert.Equal(t, "C-product", list[2].Name)
}

func TestUpdateProduct(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99,"stock":3}`)

	rec := do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"price":12.5,"unknown":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[domain.Product](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, 3, updated.Stock)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateProductErrors(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodPatch, "/api/products/missing", `{"name":"Gadget"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorKindNotFound, decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"currency":"US"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, ErrorKindValidation, resp.Error)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "currency", resp.Issues[0].Field)

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"category":null,"name":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decode[ErrorResponse](t, rec)
	assert.Equal(t, ErrorKindValidation, resp.Error)
	assert.Equal(t, domain.MsgInvalidUpdate, resp.Message)
	assert.Equal(t, []domain.Issue{
		{Field: "category", Message: "category must not be null"},
		{Field: "name", Message: "name must not be null"},
	}, resp.Issues)

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"stock":"many"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decode[ErrorResponse](t, rec)
	assert.Equal(t, ErrorKindValidation, resp.Error)
	assert.Equal(t, []domain.Issue{{Field: "stock", Message: "expected integer, received string"}}, resp.Issues)

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `[1,2]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorKindValidation, decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorKindBadRequest, decode[ErrorResponse](t, rec).Error)

	// rejected patches leave the product untouched
	got := decode[domain.Product](t, do(t, h, http.MethodGet, "/api/products/"+created.ID, ""))
	assert.Equal(t, "USD", got.Currency)
}

func TestDeleteProduct(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodDelete, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	list := decode[[]domain.Product](t, do(t, h, http.MethodGet, "/api/products", ""))
	assert.Empty(t, list)
}

func TestHealth(t *testing.T) {
	h := newCatalogRouter(t)
	create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","products":1}`, rec.Body.String())
}

// failingService fails every call with err
type failingService struct {
	err error
}

func (s failingService) ListProducts(context.Context) (service.Products, error) {
	return nil, s.err
}

func (s failingService) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, s.err
}

func (s failingService) CreateProduct(context.Context, domain.ProductCreate) (*domain.Product, error) {
	return nil, s.err
}

func (s failingService) UpdateProduct(context.Context, string, domain.ProductPatch) (*domain.Product, error) {
	return nil, s.err
}

func (s failingService) DeleteProduct(context.Context, string) error {
	return s.err
}

func (s failingService) CountProducts(context.Context) (int, error) {
	return 0, s.err
}

func TestUnexpectedErrorsAreServerErrors(t *testing.T) {
	h := newTestRouter(t, failingService{err: errors.New("disk on fire")}, t.TempDir())

	testCases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/products", ""},
		{http.MethodGet, "/api/products/1", ""},
		{http.MethodPost, "/api/products", `{"name":"Widget","price":1}`},
		{http.MethodPatch, "/api/products/1", `{"name":"Gadget"}`},
		{http.MethodDelete, "/api/products/1", ""},
		{http.MethodGet, "/health", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, ErrorKindServer, resp.Error)
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestImages(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)
	path := "/images/" + created.ID + "/widget.png"

	rec := do(t, h, http.MethodPost, "/images/missing/widget.png", "png")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, path, "png-bytes")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "http://example.com"+path, decode[ImageResponse](t, rec).URL)

	rec = do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = do(t, h, http.MethodPost, path, strings.Repeat("x", testImageMaxBytes+1))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, h, http.MethodGet, "/images/"+created.ID+"/other.png", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadedImageURLCanBeStoredOnProduct(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodPost, "/images/"+created.ID+"/w.png", "png-bytes")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imageURL := decode[ImageResponse](t, rec).URL

	rec = do(t, h, http.MethodPatch, "/api/products/"+created.ID, `{"imageUrl":"`+imageURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, imageURL, decode[domain.Product](t, rec).ImageURL)
}

func TestImageURLFollowsForwardedProto(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)

	req := httptest.NewRequest(http.MethodPost, "/images/"+created.ID+"/w.png", strings.NewReader("png"))
	req.Host = "shop.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://shop.example.com/images/"+created.ID+"/w.png", decode[ImageResponse](t, rec).URL)
}

func TestDeleteProductRemovesImages(t *testing.T) {
	h, imageDir := newCatalogRouterWithImages(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)
	path := "/images/" + created.ID + "/widget.png"

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, path, "png-bytes").Code)
	assert.DirExists(t, filepath.Join(imageDir, created.ID))

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/products/"+created.ID, "").Code)

	assert.NoDirExists(t, filepath.Join(imageDir, created.ID))
	rec := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorKindNotFound, decode[ErrorResponse](t, rec).Error)
}

func TestImageDownloadIsCompressed(t *testing.T) {
	h := newCatalogRouter(t)
	created := create(t, h, `{"name":"Widget","price":9.99}`)
	path := "/images/" + created.ID + "/widget.txt"

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, path, "aaaaaaaa").Code)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestRequestIDHeader(t *testing.T) {
	h := newCatalogRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newCatalogRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDocs(t *testing.T) {
	h := newCatalogRouter(t)

	rec := do(t, h, http.MethodGet, "/swagger.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("basePath: /")))

	rec = do(t, h, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/swagger.yaml")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newCatalogRouter(t)
	create(t, h, `{"name":"Widget","price":9.99}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_products_created_total")
	assert.Contains(t, rec.Body.String(), `path="/api/products"`)
}
