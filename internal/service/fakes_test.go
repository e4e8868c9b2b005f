package service_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/payment"
	"github.com/linemk/storefront/internal/storage"
	"github.com/linemk/storefront/internal/storage/objectstore"
)

type fakeUserRepo struct {
	users map[string]*models.User // ключ — email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrEmailTaken
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

type fakeTokenRepo struct {
	users  *fakeUserRepo
	tokens map[int64]*models.AuthToken // ключ: userID
}

var _ storage.TokenStorage = (*fakeTokenRepo)(nil)

func newFakeTokenRepo(users *fakeUserRepo) *fakeTokenRepo {
	return &fakeTokenRepo{users: users, tokens: make(map[int64]*models.AuthToken)}
}

func (f *fakeTokenRepo) GetTokenByUserID(ctx context.Context, userID int64) (*models.AuthToken, error) {
	t, ok := f.tokens[userID]
	if !ok {
		return nil, storage.ErrTokenNotFound
	}
	return t, nil
}

func (f *fakeTokenRepo) SaveToken(ctx context.Context, token *models.AuthToken) error {
	token.CreatedAt = time.Now()
	f.tokens[token.UserID] = token
	return nil
}

func (f *fakeTokenRepo) DeleteTokenByUserID(ctx context.Context, userID int64) error {
	delete(f.tokens, userID)
	return nil
}

func (f *fakeTokenRepo) GetPrincipalByToken(ctx context.Context, token string) (*models.Principal, error) {
	for _, t := range f.tokens {
		if t.Token != token || t.Expired(time.Now()) {
			continue
		}
		user, err := f.users.GetUserByID(ctx, t.UserID)
		if err != nil {
			return nil, storage.ErrTokenNotFound
		}
		return &models.Principal{UserID: user.ID, IsActive: user.IsActive, IsStaff: user.IsStaff}, nil
	}
	return nil, storage.ErrTokenNotFound
}

type fakeProductRepo struct {
	products map[int64]*models.Product
	nextID   int64
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[int64]*models.Product)}
	for _, p := range products {
		f.products[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	return &c
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	result := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		result = append(result, copyProduct(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.CategoryID != nil && *product.CategoryID > 100 {
		return nil, storage.ErrInvalidReference
	}
	f.nextID++
	product.ID = f.nextID
	f.products[product.ID] = copyProduct(product)
	return product, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	return copyProduct(p), nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) SetPhoto(ctx context.Context, id int64, photo string) error {
	p, ok := f.products[id]
	if !ok {
		return storage.ErrProductNotFound
	}
	p.Photo = &photo
	return nil
}

type fakeCatalogRepo struct {
	categories    []*models.Category
	manufacturers []*models.Manufacturer
}

var _ storage.CatalogStorage = (*fakeCatalogRepo)(nil)

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return nil, storage.ErrDuplicateName
		}
	}
	c := &models.Category{ID: int64(len(f.categories) + 1), Name: name}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeCatalogRepo) ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error) {
	return f.manufacturers, nil
}

func (f *fakeCatalogRepo) CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	for _, m := range f.manufacturers {
		if m.Name == name {
			return nil, storage.ErrDuplicateName
		}
	}
	m := &models.Manufacturer{ID: int64(len(f.manufacturers) + 1), Name: name}
	f.manufacturers = append(f.manufacturers, m)
	return m, nil
}

type fakeReviewRepo struct {
	reviews map[int64]*models.Review
	nextID  int64
}

var _ storage.ReviewStorage = (*fakeReviewRepo)(nil)

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*models.Review)}
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	f.nextID++
	review.ID = f.nextID
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	stored := *review
	f.reviews[review.ID] = &stored
	return review, nil
}

func (f *fakeReviewRepo) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, storage.ErrReviewNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeReviewRepo) UpdateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if _, ok := f.reviews[review.ID]; !ok {
		return nil, storage.ErrReviewNotFound
	}
	review.UpdatedAt = time.Now()
	stored := *review
	f.reviews[review.ID] = &stored
	return review, nil
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return storage.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) GetReviewsByProductID(ctx context.Context, productID int64) ([]*models.Review, error) {
	result := make([]*models.Review, 0)
	for _, r := range f.reviews {
		if r.ProductID == productID {
			c := *r
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

type fakeRecentRepo struct {
	products *fakeProductRepo
	views    map[int64][]int64 // ключ: userID, новые в начале
}

var _ storage.RecentStorage = (*fakeRecentRepo)(nil)

func newFakeRecentRepo(products *fakeProductRepo) *fakeRecentRepo {
	return &fakeRecentRepo{products: products, views: make(map[int64][]int64)}
}

func (f *fakeRecentRepo) TouchRecent(ctx context.Context, userID, productID int64) error {
	ids := []int64{productID}
	for _, id := range f.views[userID] {
		if id != productID {
			ids = append(ids, id)
		}
	}
	f.views[userID] = ids
	return nil
}

func (f *fakeRecentRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]*models.Product, error) {
	result := make([]*models.Product, 0)
	for _, id := range f.views[userID] {
		if len(result) == limit {
			break
		}
		if p, err := f.products.GetProductByID(ctx, id); err == nil {
			result = append(result, p)
		}
	}
	return result, nil
}

// fakeCartRepo не транзакционный: tx только пробрасывается
type fakeCartRepo struct {
	products *fakeProductRepo
	carts    map[int64]int64   // userID -> cartID
	items    map[int64][]int64 // cartID -> productIDs
	locked   bool
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo(products *fakeProductRepo) *fakeCartRepo {
	return &fakeCartRepo{
		products: products,
		carts:    make(map[int64]int64),
		items:    make(map[int64][]int64),
	}
}

func (f *fakeCartRepo) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	if id, ok := f.carts[userID]; ok {
		return id, nil
	}
	id := int64(len(f.carts) + 1)
	f.carts[userID] = id
	return id, nil
}

func (f *fakeCartRepo) ListCartProducts(ctx context.Context, cartID int64) ([]*models.Product, error) {
	result := make([]*models.Product, 0)
	for _, id := range f.items[cartID] {
		p, err := f.products.GetProductByID(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (f *fakeCartRepo) AddProduct(ctx context.Context, cartID, productID int64) error {
	for _, id := range f.items[cartID] {
		if id == productID {
			return nil
		}
	}
	f.items[cartID] = append(f.items[cartID], productID)
	return nil
}

func (f *fakeCartRepo) RemoveProduct(ctx context.Context, cartID, productID int64) error {
	ids := f.items[cartID][:0]
	for _, id := range f.items[cartID] {
		if id != productID {
			ids = append(ids, id)
		}
	}
	f.items[cartID] = ids
	return nil
}

func (f *fakeCartRepo) LockCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	if f.locked {
		return nil, storage.ErrCartLocked
	}
	cartID, ok := f.carts[userID]
	if !ok {
		return nil, storage.ErrCartNotFound
	}
	products, _ := f.ListCartProducts(ctx, cartID)
	return &models.Cart{ID: cartID, UserID: userID, Products: products}, nil
}

func (f *fakeCartRepo) DeleteCartTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	for userID, id := range f.carts {
		if id == cartID {
			delete(f.carts, userID)
		}
	}
	delete(f.items, cartID)
	return nil
}

type fakeOrderRepo struct {
	orders      map[int64]*models.Order
	nextID      int64
	transitions int // сколько раз заказ реально переводился в paid
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, orderPrice int64, products []models.OrderProduct) (int64, error) {
	f.nextID++
	f.orders[f.nextID] = &models.Order{
		ID:         f.nextID,
		UserID:     userID,
		OrderPrice: orderPrice,
		Status:     models.OrderStatusUnpaid,
		Products:   products,
		CreatedAt:  time.Now(),
	}
	return f.nextID, nil
}

func (f *fakeOrderRepo) SetPaymentSessionTx(ctx context.Context, tx *sql.Tx, orderID int64, sessionID string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.PaymentSessionID = &sessionID
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	result := make([]*models.Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			c := *o
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, id int64) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, storage.ErrOrderNotFound
	}
	if o.IsPaid() {
		return false, nil
	}
	now := time.Now()
	o.Status = models.OrderStatusPaid
	o.PaidAt = &now
	f.transitions++
	return true, nil
}

// fakeGateway хранит сессии в памяти; подпись webhook проверяет настоящий StripeGateway
type fakeGateway struct {
	sessions  map[string]*payment.Session
	requests  []payment.CheckoutRequest
	createErr error
	parser    *payment.StripeGateway
}

var _ payment.Gateway = (*fakeGateway)(nil)

func newFakeGateway(parser *payment.StripeGateway) *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*payment.Session), parser: parser}
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.requests = append(f.requests, req)
	id := "cs_test_" + strings.Repeat("x", len(f.sessions)+1)
	s := &payment.Session{ID: id, URL: "https://checkout.stripe.test/" + id, OrderID: req.OrderID}
	f.sessions[id] = s
	return s, nil
}

func (f *fakeGateway) GetSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, &payment.GatewayError{Message: "No such checkout.session: " + sessionID}
	}
	c := *s
	return &c, nil
}

func (f *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	return f.parser.ParseWebhook(payload, signature)
}

type fakeObjectStorage struct {
	objects map[string][]byte
}

var _ objectstore.ObjectStorage = (*fakeObjectStorage)(nil)

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	key := objectstore.ObjectKey("media", prefix, filename)
	f.objects[key] = buf.Bytes()
	return key, nil
}

func (f *fakeObjectStorage) URL(key string) string {
	return "http://cdn.test/" + key
}
