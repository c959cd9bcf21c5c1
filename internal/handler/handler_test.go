package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
	"github.com/flicky/rabbit-store-api/internal/service"
	"github.com/flicky/rabbit-store-api/internal/storage"
)

const testSecret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type userLoader map[uuid.UUID]*model.User

func (u userLoader) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return u[id], nil
}

type fakeCoupons struct {
	byID map[uuid.UUID]*model.Coupon
}

func (f *fakeCoupons) Create(_ context.Context, c *model.Coupon) error {
	c.ID = uuid.New()
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCoupons) GetByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	return f.byID[id], nil
}

func (f *fakeCoupons) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	for _, c := range f.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCoupons) List(_ context.Context) ([]model.Coupon, error) {
	out := make([]model.Coupon, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCoupons) Update(_ context.Context, c *model.Coupon) error {
	if _, ok := f.byID[c.ID]; !ok {
		return repository.ErrNotFound
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCoupons) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCoupons) MarkUsed(_ context.Context, id, userID uuid.UUID) error {
	c, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !c.UsedByUser(userID) {
		c.UsedBy = append(c.UsedBy, userID)
	}
	return nil
}

type fakeUploader struct {
	got string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	body, _ := io.ReadAll(r)
	f.got = filename + ":" + string(body)
	return "https://img.example.com/" + filename, nil
}

type testAPI struct {
	router   *gin.Engine
	users    userLoader
	coupons  *fakeCoupons
	uploader *fakeUploader
	customer *model.User
	admin    *model.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		users:    userLoader{},
		coupons:  &fakeCoupons{byID: make(map[uuid.UUID]*model.Coupon)},
		uploader: &fakeUploader{},
		customer: &model.User{ID: uuid.New(), Name: "Ann", Role: model.RoleCustomer},
		admin:    &model.User{ID: uuid.New(), Name: "Root", Role: model.RoleAdmin},
	}
	api.users[api.customer.ID] = api.customer
	api.users[api.admin.ID] = api.admin

	h := Handlers{
		Auth:     &AuthHandler{},
		User:     &UserHandler{},
		Product:  &ProductHandler{},
		Cart:     &CartHandler{},
		Checkout: &CheckoutHandler{},
		Order:    &OrderHandler{},
		Coupon:   NewCouponHandler(service.NewCouponService(api.coupons)),
		Comment:  &CommentHandler{},
		Post:     &PostHandler{},
		Category: &CategoryHandler{},
		Contact:  &ContactHandler{},
		Upload:   NewUploadHandler(api.uploader, 1<<20),
	}
	api.router = gin.New()
	h.Register(api.router, Guards{
		Auth:         middleware.AuthMiddleware(testSecret, api.users),
		OptionalAuth: middleware.OptionalAuth(testSecret, api.users),
		Admin:        middleware.AdminOnly(),
		LoginLimit:   func(c *gin.Context) { c.Next() },
	})
	return api
}

func tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID.String(),
		"role": u.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *testAPI) do(t *testing.T, method, path string, body any, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/coupons", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/coupons", nil, api.customer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/coupons", nil, api.admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/admin/orders", nil, api.customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_DeletedUserTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	ghost := &model.User{ID: uuid.New(), Role: model.RoleAdmin}

	w := api.do(t, http.MethodGet, "/api/coupons", nil, ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user not found", errorOf(t, w))
}

func TestAuth_DemotedAdminLosesAccess(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, api.admin)
	api.admin.Role = model.RoleCustomer

	req := httptest.NewRequest(http.MethodGet, "/api/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCoupons_CreateAndCheck(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/coupons", gin.H{
		"code": "SAVE10", "discountType": "percentage", "discountValue": 10, "minPurchase": 30,
	}, api.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/coupons/check", gin.H{"couponCode": "SAVE10", "totalPrice": 40}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.CheckCouponResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, decimal.NewFromInt(4).Equal(resp.DiscountAmount), resp.DiscountAmount.String())

	w = api.do(t, http.MethodPost, "/api/coupons/check", gin.H{"couponCode": "SAVE10", "totalPrice": 20}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w), "minimum")

	w = api.do(t, http.MethodPost, "/api/coupons/check", gin.H{"couponCode": "NOPE", "totalPrice": 40}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid coupon code", errorOf(t, w))
}

func TestCoupons_UseThenCheckAsSameUser(t *testing.T) {
	api := newTestAPI(t)
	coupon := &model.Coupon{Code: "ONCE", DiscountType: model.DiscountFixed, DiscountValue: decimal.NewFromInt(5), Active: true}
	require.NoError(t, api.coupons.Create(context.Background(), coupon))

	w := api.do(t, http.MethodPost, "/api/coupons/use", gin.H{"couponId": coupon.ID}, api.customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/coupons/check", gin.H{"couponCode": "ONCE", "totalPrice": 40}, api.customer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrCouponAlreadyUsed.Error(), errorOf(t, w))

	// Anonymous callers skip the per-user check.
	w = api.do(t, http.MethodPost, "/api/coupons/check", gin.H{"couponCode": "ONCE", "totalPrice": 40}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCoupons_InvalidID(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodDelete, "/api/coupons/not-a-uuid", nil, api.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid coupon ID", errorOf(t, w))

	w = api.do(t, http.MethodDelete, "/api/coupons/"+uuid.NewString(), nil, api.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationMessages(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		user   *model.User
		want   string
	}{
		{"register missing name", http.MethodPost, "/api/users/register", gin.H{"email": "a@b.co", "password": "secret1"}, nil, "name is required"},
		{"register bad email", http.MethodPost, "/api/users/register", gin.H{"name": "A", "email": "nope", "password": "secret1"}, nil, "email must be a valid email"},
		{"register short password", http.MethodPost, "/api/users/register", gin.H{"name": "A", "email": "a@b.co", "password": "123"}, nil, "password must be at least 6"},
		{"order status", http.MethodPut, "/api/orders/" + uuid.NewString() + "/status", gin.H{"status": "Lost"}, api.customer, "invalid order status"},
		{"empty checkout", http.MethodPost, "/api/checkout", gin.H{"checkoutItems": []any{}, "paymentMethod": "cod"}, api.customer, "checkoutItems must be at least 1"},
		{"comment rating", http.MethodPost, "/api/comments", gin.H{"productId": uuid.New(), "content": "x", "rating": 9}, api.customer, "rating must be at most 5"},
		{"contact email", http.MethodPost, "/api/contacts", gin.H{"name": "A", "message": "hi"}, nil, "email is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(t, tc.method, tc.path, tc.body, tc.user)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, errorOf(t, w))
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w for product Tee", service.ErrInsufficientStock), http.StatusBadRequest, "insufficient stock for product Tee"},
		{service.ErrCheckoutNotPayable, http.StatusBadRequest, "checkout not paid or already finalized"},
		{service.ErrForbidden, http.StatusForbidden, "access denied"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{service.ErrOrderNotFound, http.StatusNotFound, "order not found"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.msg, errorOf(t, w))
		if tc.status == http.StatusInternalServerError {
			assert.Len(t, c.Errors, 1)
		} else {
			assert.Empty(t, c.Errors)
		}
	}
}

func TestUpload(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/upload", nil, api.customer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file uploaded", errorOf(t, w))

	w = api.upload(t, "shirt.png", "pixels")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"imageUrl":"https://img.example.com/shirt.png"}`, w.Body.String())
	assert.Equal(t, "shirt.png:pixels", api.uploader.got)
}

func TestUpload_ImageHostNotConfigured(t *testing.T) {
	api := newTestAPI(t)
	api.uploader.err = storage.ErrNotConfigured

	w := api.upload(t, "shirt.png", "pixels")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "image host not configured", errorOf(t, w))
}

func (a *testAPI) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, a.customer))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestUpload_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/upload", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReadyz(t *testing.T) {
	router := gin.New()
	h := &HealthHandler{checks: []dependencyCheck{
		{"postgres", func(context.Context) error { return nil }},
		{"redis", func(context.Context) error { return errors.New("down") }},
	}}
	router.GET("/readyz", h.Readyz)
	router.GET("/healthz", h.Healthz)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"redis":"unavailable"`))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
