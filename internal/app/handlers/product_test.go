package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestListProductsHandler_Filter(t *testing.T) {
	fakeSvc := &fakeCatalogService{products: []*models.Product{{ID: 1, Name: "Cable", Price: 10}}}
	handler := handlers.ListProductsHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/products?name=cab&price_min=5&price_max=50&category=2&sort_by=-price", "", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cab", fakeSvc.filter.Name)
	assert.Equal(t, "-price", fakeSvc.filter.SortBy)
	require.NotNil(t, fakeSvc.filter.PriceMin)
	assert.Equal(t, int64(5), *fakeSvc.filter.PriceMin)
	require.NotNil(t, fakeSvc.filter.CategoryID)
	assert.Equal(t, int64(2), *fakeSvc.filter.CategoryID)
	assert.Nil(t, fakeSvc.filter.ManufacturerID)

	var products []*models.Product
	decodeData(t, rr, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Cable", products[0].Name)
}

func TestListProductsHandler_BadNumber(t *testing.T) {
	handler := handlers.ListProductsHandler(discard, &fakeCatalogService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/products?price_min=cheap", "", nil, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "number", decodeError(t, rr).Error.Errors["price_min"])
}

func TestCreateProductHandler(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.CreateProductHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product", `{"name": "Cable", "description": "USB-C", "price": 0, "category": 1}`, nil, staff))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data": {"id": 10, "message": "Product added"}}`, rr.Body.String())
	require.NotNil(t, fakeSvc.created)
	assert.Equal(t, int64(0), fakeSvc.created.Price)
}

func TestCreateProductHandler_ValidationError(t *testing.T) {
	handler := handlers.CreateProductHandler(discard, &fakeCatalogService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product", `{"name": "Cable"}`, nil, staff))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "required", decodeError(t, rr).Error.Errors["price"])

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product", `{"name": "Cable", "price": -3}`, nil, staff))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "gte", decodeError(t, rr).Error.Errors["price"])
}

func TestCreateProductHandler_LengthLimits(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.CreateProductHandler(discard, fakeSvc)

	body := fmt.Sprintf(`{"name": %q, "description": %q, "price": 1}`, strings.Repeat("a", 150), strings.Repeat("d", 1500))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product", body, nil, staff))
	assert.Equal(t, http.StatusCreated, rr.Code)

	body = fmt.Sprintf(`{"name": %q, "description": %q, "price": 1}`, strings.Repeat("a", 151), strings.Repeat("d", 1501))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product", body, nil, staff))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, map[string]string{"name": "max", "description": "max"}, decodeError(t, rr).Error.Errors)
}

func TestProductDetailHandler(t *testing.T) {
	fakeSvc := &fakeCatalogService{detail: &service.ProductDetail{
		Product: &models.Product{ID: 1, Name: "Cable", Price: 10},
		Reviews: []*models.Review{},
	}}
	handler := handlers.ProductDetailHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/product/1", "", map[string]string{"id": "1"}, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, fakeSvc.viewer)

	var data map[string]any
	decodeData(t, rr, &data)
	assert.Equal(t, "Cable", data["name"])
	assert.Nil(t, data["rating"])
	assert.Contains(t, data, "reviews")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/product/1", "", map[string]string{"id": "1"}, customer))
	assert.Equal(t, customer, fakeSvc.viewer)
}

func TestProductDetailHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeCatalogService{err: fmt.Errorf("op: %w", service.ErrNotFound)}
	handler := handlers.ProductDetailHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/product/abc", "", map[string]string{"id": "abc"}, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/product/9", "", map[string]string{"id": "9"}, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not found", decodeError(t, rr).Error.Message)
}

func TestUpdateProductHandler_Partial(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.UpdateProductHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPatch, "/product/1", `{"price": 15}`, map[string]string{"id": "1"}, staff))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, fakeSvc.patch.Price)
	assert.Equal(t, int64(15), *fakeSvc.patch.Price)
	assert.Nil(t, fakeSvc.patch.Name)
}

func TestUpdateProductHandler_LengthLimits(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.UpdateProductHandler(discard, fakeSvc)

	body := fmt.Sprintf(`{"name": %q, "description": %q}`, strings.Repeat("a", 151), strings.Repeat("d", 1501))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPatch, "/product/1", body, map[string]string{"id": "1"}, staff))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, map[string]string{"name": "max", "description": "max"}, decodeError(t, rr).Error.Errors)
	assert.Nil(t, fakeSvc.patch.Name)
}

func TestCatalogNameLengthLimit(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	tooLong := fmt.Sprintf(`{"name": %q}`, strings.Repeat("c", 151))

	for _, h := range []http.HandlerFunc{
		handlers.CreateCategoryHandler(discard, fakeSvc),
		handlers.CreateManufacturerHandler(discard, fakeSvc),
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, newRequest(http.MethodPost, "/category", tooLong, nil, staff))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "max", decodeError(t, rr).Error.Errors["name"])

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, newRequest(http.MethodPost, "/category", fmt.Sprintf(`{"name": %q}`, strings.Repeat("c", 150)), nil, staff))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}
}

func TestDeleteProductHandler(t *testing.T) {
	handler := handlers.DeleteProductHandler(discard, &fakeCatalogService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodDelete, "/product/1", "", map[string]string{"id": "1"}, staff))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data": {"message": "Product removed"}}`, rr.Body.String())
}

func TestUploadPhotoHandler(t *testing.T) {
	fakeSvc := &fakeCatalogService{}
	handler := handlers.UploadPhotoHandler(discard, fakeSvc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="cable.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG"))
	require.NoError(t, mw.Close())

	req := withRoute(httptest.NewRequest(http.MethodPost, "/product/1/photo", &body), map[string]string{"id": "1"}, staff)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cable.png", fakeSvc.upload.Filename)
	assert.Equal(t, "image/png", fakeSvc.upload.ContentType)
	assert.Equal(t, int64(4), fakeSvc.upload.Size)
}

func TestUploadPhotoHandler_MissingFile(t *testing.T) {
	handler := handlers.UploadPhotoHandler(discard, &fakeCatalogService{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodPost, "/product/1/photo", `{}`, map[string]string{"id": "1"}, staff))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "required", decodeError(t, rr).Error.Errors["photo"])
}

func TestExportProductsHandler(t *testing.T) {
	fakeSvc := &fakeCatalogService{rows: []service.ExportRow{
		{Product: &models.Product{ID: 1, Name: "Cable", Price: 10}, Category: "Accessories"},
	}}
	handler := handlers.ExportProductsHandler(discard, fakeSvc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/products/export", "", nil, staff))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")

	file, err := xlsx.OpenBinary(rr.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0].Cells[1].String())
	assert.Equal(t, "Cable", rows[1].Cells[1].String())
	assert.Equal(t, "Accessories", rows[1].Cells[4].String())
}

func TestRecentProductsHandler(t *testing.T) {
	handler := handlers.RecentProductsHandler(discard, &fakeCatalogService{products: []*models.Product{}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newRequest(http.MethodGet, "/recent", "", nil, customer))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data": []}`, rr.Body.String())
}

func TestCategoryHandlers(t *testing.T) {
	fakeSvc := &fakeCatalogService{}

	rr := httptest.NewRecorder()
	handlers.CreateCategoryHandler(discard, fakeSvc).ServeHTTP(rr, newRequest(http.MethodPost, "/category", `{"name": "Audio"}`, nil, staff))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data": {"id": 2, "name": "Audio"}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handlers.CreateManufacturerHandler(discard, fakeSvc).ServeHTTP(rr, newRequest(http.MethodPost, "/manufacturer", `{"name": ""}`, nil, staff))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	handlers.ListCategoriesHandler(discard, fakeSvc).ServeHTTP(rr, newRequest(http.MethodGet, "/categories", "", nil, nil))
	assert.JSONEq(t, `{"data": [{"id": 1, "name": "Accessories"}]}`, rr.Body.String())
}
