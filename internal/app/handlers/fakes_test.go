package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/logger/handlers/slogdiscard"
	"github.com/linemk/storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var discard = slogdiscard.NewDiscardLogger()

// newRequest собирает запрос с параметрами пути chi и, если нужно, пользователем в контексте
func newRequest(method, target, body string, params map[string]string, p *models.Principal) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return withRoute(req, params, p)
}

func withRoute(req *http.Request, params map[string]string, p *models.Principal) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if p != nil {
		ctx = jwtmiddleware.WithPrincipal(ctx, p)
	}
	return req.WithContext(ctx)
}

var (
	customer = &models.Principal{UserID: 1, IsActive: true}
	staff    = &models.Principal{UserID: 2, IsActive: true, IsStaff: true}
)

type errorBody struct {
	Error struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	} `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, data any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: data}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
}

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	token      string
	err        error
	loggedOut  int64
	signUpFIO  string
	loginEmail string
}

func (f *fakeAuthService) SignUp(ctx context.Context, fio, email, password string) (string, error) {
	f.signUpFIO = fio
	return f.token, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	f.loginEmail = email
	return f.token, f.err
}

func (f *fakeAuthService) Logout(ctx context.Context, userID int64) error {
	f.loggedOut = userID
	return f.err
}

func (f *fakeAuthService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	return nil, f.err
}

type fakeCatalogService struct {
	products []*models.Product
	detail   *service.ProductDetail
	rows     []service.ExportRow
	err      error

	filter  models.ProductFilter
	created *models.Product
	patch   models.ProductPatch
	viewer  *models.Principal
	upload  service.PhotoUpload
}

var _ service.CatalogService = (*fakeCatalogService)(nil)

func (f *fakeCatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	f.filter = filter
	return f.products, f.err
}

func (f *fakeCatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = product
	product.ID = 10
	return product, nil
}

func (f *fakeCatalogService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: id, Name: "Updated"}, nil
}

func (f *fakeCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return f.err
}

func (f *fakeCatalogService) GetProductDetail(ctx context.Context, id int64, viewer *models.Principal) (*service.ProductDetail, error) {
	f.viewer = viewer
	return f.detail, f.err
}

func (f *fakeCatalogService) ListRecent(ctx context.Context, userID int64) ([]*models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalogService) UploadPhoto(ctx context.Context, id int64, photo service.PhotoUpload) (*models.Product, error) {
	f.upload = photo
	if f.err != nil {
		return nil, f.err
	}
	url := "http://cdn.test/media/products/x.png"
	return &models.Product{ID: id, Photo: &url}, nil
}

func (f *fakeCatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{{ID: 1, Name: "Accessories"}}, f.err
}

func (f *fakeCatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Category{ID: 2, Name: name}, nil
}

func (f *fakeCatalogService) ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error) {
	return []*models.Manufacturer{}, f.err
}

func (f *fakeCatalogService) CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Manufacturer{ID: 3, Name: name}, nil
}

func (f *fakeCatalogService) ExportProducts(ctx context.Context) ([]service.ExportRow, error) {
	return f.rows, f.err
}

type fakeCartService struct {
	items []service.CartItem
	err   error
	added int64
}

func (f *fakeCartService) ViewCart(ctx context.Context, userID int64) ([]service.CartItem, error) {
	return f.items, f.err
}

func (f *fakeCartService) AddProduct(ctx context.Context, userID, productID int64) error {
	f.added = productID
	return f.err
}

func (f *fakeCartService) RemoveProduct(ctx context.Context, userID, productID int64) error {
	return f.err
}

type fakeOrderService struct {
	orders    []*models.Order
	placed    *service.PlacedOrder
	status    *service.PaymentStatus
	err       error
	payload   []byte
	signature string
}

func (f *fakeOrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) PlaceOrder(ctx context.Context, userID int64) (*service.PlacedOrder, error) {
	return f.placed, f.err
}

func (f *fakeOrderService) CheckStatus(ctx context.Context, userID int64, sessionID string) (*service.PaymentStatus, error) {
	return f.status, f.err
}

func (f *fakeOrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	f.payload = payload
	f.signature = signature
	return f.err
}

type fakeReviewService struct {
	err   error
	grade decimal.Decimal
	patch service.ReviewPatch
}

func (f *fakeReviewService) CreateReview(ctx context.Context, userID, productID int64, text string, grade decimal.Decimal) (*models.Review, error) {
	f.grade = grade
	if f.err != nil {
		return nil, f.err
	}
	return &models.Review{ID: 1, ProductID: productID, UserID: userID, Text: text, Grade: grade}, nil
}

func (f *fakeReviewService) UpdateReview(ctx context.Context, userID, reviewID int64, patch service.ReviewPatch) (*models.Review, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &models.Review{ID: reviewID, UserID: userID}, nil
}

func (f *fakeReviewService) DeleteReview(ctx context.Context, userID, reviewID int64) error {
	return f.err
}
