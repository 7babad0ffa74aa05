package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/ordershop/pkg/clients"
	"github.com/example/ordershop/pkg/config"
	"github.com/example/ordershop/pkg/models"
	"github.com/example/ordershop/pkg/saga"
	"github.com/example/ordershop/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Function-field fakes for the saga's remote clients.
type fakeDirectory struct {
	getUserFunc func(ctx context.Context, id string) (*models.User, error)
}

func (f *fakeDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	return f.getUserFunc(ctx, id)
}

type fakeCatalog struct {
	getProductFunc  func(ctx context.Context, id string) (*models.Product, error)
	deductStockFunc func(ctx context.Context, id string, quantity int) error
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return f.getProductFunc(ctx, id)
}

func (f *fakeCatalog) DeductStock(ctx context.Context, id string, quantity int) error {
	if f.deductStockFunc != nil {
		return f.deductStockFunc(ctx, id, quantity)
	}
	return nil
}

func happyDirectory() *fakeDirectory {
	return &fakeDirectory{
		getUserFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id != "u1" {
				return nil, fmt.Errorf("%w: user %s", clients.ErrNotFound, id)
			}
			return &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}, nil
		},
	}
}

func happyCatalog() *fakeCatalog {
	return &fakeCatalog{
		getProductFunc: func(ctx context.Context, id string) (*models.Product, error) {
			if id != "p1" {
				return nil, fmt.Errorf("%w: product %s", clients.ErrNotFound, id)
			}
			return &models.Product{ID: "p1", Name: "Widget", Price: 10, Stock: 5}, nil
		},
	}
}

func newTestServer(t *testing.T, directory saga.DirectoryClient, catalog saga.CatalogClient) (*Server, *store.MemoryOrderStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Name = "order-service"
	cfg.Services.DirectoryURL = "http://localhost:3001"
	cfg.Services.CatalogURL = "http://localhost:3003"

	memStore := store.NewMemoryOrderStore()
	logger := zap.NewNop()
	coordinator := saga.NewCoordinator(memStore, directory, catalog, nil, logger)

	srv := New(cfg, logger, coordinator, memStore, nil)
	srv.SetupRoutes()
	return srv, memStore
}

func doRequest(srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, happyDirectory(), happyCatalog())

	w := doRequest(srv, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "order-service", body["service"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "http://localhost:3001", deps["userService"])
	assert.Equal(t, "http://localhost:3003", deps["productService"])
}

func TestCreateOrder(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	w := doRequest(srv, http.MethodPost, "/orders", gin.H{
		"userId":    "u1",
		"productId": "p1",
		"quantity":  3,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "u1", data["userId"])
	assert.Equal(t, 30.0, data["totalPrice"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, 1, memStore.Len())
}

func TestCreateOrder_BadRequests(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	cases := []struct {
		name string
		req  gin.H
	}{
		{"missing fields", gin.H{"quantity": 1}},
		{"zero quantity", gin.H{"userId": "u1", "productId": "p1", "quantity": 0}},
		{"unknown user", gin.H{"userId": "ghost", "productId": "p1", "quantity": 1}},
		{"unknown product", gin.H{"userId": "u1", "productId": "missing", "quantity": 1}},
		{"insufficient stock", gin.H{"userId": "u1", "productId": "p1", "quantity": 99}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(srv, http.MethodPost, "/orders", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
		})
	}

	assert.Equal(t, 0, memStore.Len())
}

func TestCreateOrder_StockCommitFailure(t *testing.T) {
	catalog := happyCatalog()
	catalog.deductStockFunc = func(ctx context.Context, id string, quantity int) error {
		return fmt.Errorf("%w: catalog down", clients.ErrUnreachable)
	}
	srv, memStore := newTestServer(t, happyDirectory(), catalog)

	w := doRequest(srv, http.MethodPost, "/orders", gin.H{
		"userId":    "u1",
		"productId": "p1",
		"quantity":  1,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, memStore.Len())
}

func TestGetOrder(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	order := &models.Order{UserID: "u1", ProductID: "p1", Quantity: 1, TotalPrice: 10}
	id, err := memStore.Insert(context.Background(), order)
	require.NoError(t, err)

	w := doRequest(srv, http.MethodGet, "/orders/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, id, data["id"])

	w = doRequest(srv, http.MethodGet, "/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersByUser(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	for _, userID := range []string{"u1", "u2", "u1"} {
		_, err := memStore.Insert(context.Background(), &models.Order{UserID: userID, ProductID: "p1", Quantity: 1})
		require.NoError(t, err)
	}

	w := doRequest(srv, http.MethodGet, "/orders/user/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 2.0, body["count"])

	w = doRequest(srv, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, 3.0, body["count"])

	w = doRequest(srv, http.MethodGet, "/orders/something/u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	id, err := memStore.Insert(context.Background(), &models.Order{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	w := doRequest(srv, http.MethodPatch, "/orders/"+id+"/status", gin.H{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "shipped", data["status"])

	w = doRequest(srv, http.MethodPatch, "/orders/"+id+"/status", gin.H{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(srv, http.MethodPatch, "/orders/nope/status", gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOrder(t *testing.T) {
	srv, memStore := newTestServer(t, happyDirectory(), happyCatalog())

	id, err := memStore.Insert(context.Background(), &models.Order{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	w := doRequest(srv, http.MethodDelete, "/orders/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, memStore.Len())

	w = doRequest(srv, http.MethodDelete, "/orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
