package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/bootstrap"
	"github.com/sangkips/fieldops-api/internal/config"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/infrastructure/database"
	"github.com/sangkips/fieldops-api/internal/presentation/http/handler"
	"github.com/sangkips/fieldops-api/internal/presentation/http/routes"
	"github.com/sangkips/fieldops-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	token  string
	admin  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteDB(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	app, err := bootstrap.Wire(context.Background(), db, config.InvoiceConfig{
		NumberPrefix:      "A",
		StrictTransitions: true,
		RetryAttempts:     3,
		RetryDelay:        time.Millisecond,
		ReconcileWorkers:  2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	cfg := &config.Config{App: config.AppConfig{Name: "fieldops-api"}}
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)

	router := routes.Setup(&routes.Handlers{
		Client:    handler.NewClientHandler(app.Clients),
		WorkOrder: handler.NewWorkOrderHandler(app.WorkOrders),
		Invoice:   handler.NewInvoiceHandler(app.Invoices),
	}, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: app.IdempotencyRepo,
	})

	token, err := jwtManager.GenerateAccessToken(uuid.New(), "clerk@example.com", []string{"user"})
	require.NoError(t, err)
	admin, err := jwtManager.GenerateAccessToken(uuid.New(), "admin@example.com", []string{"admin"})
	require.NoError(t, err)

	return &testServer{router: router, token: token, admin: admin}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) createClient(t *testing.T) entity.Client {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/clients", s.token, map[string]any{
		"name":          "C1",
		"tax_id":        "211234560018",
		"business_name": "C1 S.A.",
		"address":       "Av. Italia 1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var client entity.Client
	require.NoError(t, json.Unmarshal(env.Data, &client))
	return client
}

func (s *testServer) createWorkOrder(t *testing.T, clientID uuid.UUID) entity.WorkOrder {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/work-orders", s.token, map[string]any{
		"client_id": clientID,
		"title":     "Boiler maintenance",
		"status":    "completed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var workOrder entity.WorkOrder
	require.NoError(t, json.Unmarshal(env.Data, &workOrder))
	return workOrder
}

func invoiceBody(clientID uuid.UUID, workOrderIDs ...uuid.UUID) map[string]any {
	return map[string]any{
		"client_id":      clientID,
		"work_order_ids": workOrderIDs,
		"items": []map[string]any{
			{"description": "Labor", "quantity": 2, "unit_price": 100, "tax_rate": 22},
		},
	}
}

func decodeInvoice(t *testing.T, env envelope) entity.Invoice {
	t.Helper()
	var inv entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	return inv
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fieldops-api")
}

func TestRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/invoices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = s.do(t, http.MethodGet, "/api/v1/invoices", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateInvoiceSettlesWorkOrder(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	workOrder := s.createWorkOrder(t, client.ID)

	w, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, workOrder.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	inv := decodeInvoice(t, env)
	assert.True(t, decimal.NewFromInt(200).Equal(inv.Subtotal))
	assert.True(t, decimal.NewFromInt(44).Equal(inv.TaxAmount))
	assert.True(t, decimal.NewFromInt(244).Equal(inv.TotalAmount))
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Equal(t, fmt.Sprintf("A-%d-00001", time.Now().Year()), inv.InvoiceNumber)
	assert.Equal(t, "draft", inv.Status.String())
	assert.Equal(t, []uuid.UUID{workOrder.ID}, inv.WorkOrderIDs)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Labor", inv.Items[0].Description)

	w, env = s.do(t, http.MethodGet, "/api/v1/work-orders/"+workOrder.ID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settled entity.WorkOrder
	require.NoError(t, json.Unmarshal(env.Data, &settled))
	assert.True(t, settled.Invoiced)
	require.NotNil(t, settled.InvoiceID)
	assert.Equal(t, inv.ID, *settled.InvoiceID)
}

func TestInvoiceAmountsAreJSONNumbers(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	workOrder := s.createWorkOrder(t, client.ID)

	w, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, workOrder.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	for _, field := range []string{"subtotal", "tax_amount", "total_amount", "paid_amount"} {
		assert.IsType(t, float64(0), raw[field], field)
	}
	assert.Equal(t, float64(244), raw["total_amount"])

	items, ok := raw["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.IsType(t, float64(0), item["quantity"])
	assert.IsType(t, float64(0), item["unit_price"])
}

func TestCreateInvoiceRejectsAlreadyInvoicedWorkOrder(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	workOrder := s.createWorkOrder(t, client.ID)

	w, _ := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, workOrder.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, workOrder.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_invoiced", env.Reason)

	w, env = s.do(t, http.MethodGet, "/api/v1/invoices", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []entity.Invoice `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
}

func TestCreateInvoiceErrors(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"unknown client", invoiceBody(uuid.New()), http.StatusNotFound},
		{"unknown work order", invoiceBody(client.ID, uuid.New()), http.StatusNotFound},
		{"missing client id", map[string]any{"items": []any{}}, http.StatusBadRequest},
		{"no items", map[string]any{"client_id": client.ID, "items": []any{}}, http.StatusBadRequest},
		{"zero quantity", map[string]any{
			"client_id": client.ID,
			"items":     []map[string]any{{"description": "Labor", "quantity": 0, "unit_price": 100}},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.False(t, env.Success)
		})
	}
}

func TestCreateInvoiceReplaysIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	workOrder := s.createWorkOrder(t, client.ID)
	body := invoiceBody(client.ID, workOrder.ID)

	first, firstEnv := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, body, "Idempotency-Key", "settle-1")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	second, secondEnv := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, body, "Idempotency-Key", "settle-1")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, decodeInvoice(t, firstEnv).ID, decodeInvoice(t, secondEnv).ID)

	other := invoiceBody(client.ID)
	w, _ := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, other, "Idempotency-Key", "settle-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	workOrder := s.createWorkOrder(t, client.ID)

	_, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, workOrder.ID))
	inv := decodeInvoice(t, env)
	path := "/api/v1/invoices/" + inv.ID.String() + "/status"

	w, _ := s.do(t, http.MethodPut, path, s.token, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "skipping steps is rejected in strict mode")

	for _, status := range []string{"pending_dgi", "validated_dgi", "sent"} {
		w, _ = s.do(t, http.MethodPut, path, s.token, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, env = s.do(t, http.MethodPut, path+"?status=paid", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decodeInvoice(t, env)
	assert.Equal(t, "paid", paid.Status.String())
	assert.True(t, paid.TotalAmount.Equal(paid.PaidAmount))
	assert.NotNil(t, paid.PaidDate)

	w, _ = s.do(t, http.MethodPut, path, s.token, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, path, s.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/v1/invoices/"+uuid.NewString()+"/status", s.token, map[string]string{"status": "sent"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListInvoicesFilters(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)

	_, env := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, s.createWorkOrder(t, client.ID).ID))
	first := decodeInvoice(t, env)
	s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, s.createWorkOrder(t, client.ID).ID))
	s.do(t, http.MethodPut, "/api/v1/invoices/"+first.ID.String()+"/status", s.token, map[string]string{"status": "cancelled"})

	w, env := s.do(t, http.MethodGet, "/api/v1/invoices?status=cancelled&client_id="+client.ID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items      []entity.Invoice `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	w, _ = s.do(t, http.MethodGet, "/api/v1/invoices?status=lost", s.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/invoices?client_id=nope", s.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkOrderListFiltersInvoiced(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient(t)
	billed := s.createWorkOrder(t, client.ID)
	s.createWorkOrder(t, client.ID)

	w, _ := s.do(t, http.MethodPost, "/api/v1/invoices", s.token, invoiceBody(client.ID, billed.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/work-orders?invoiced=false", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []entity.WorkOrder `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, billed.ID, page.Items[0].ID)

	w, _ = s.do(t, http.MethodGet, "/api/v1/work-orders?invoiced=maybe", s.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileRequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/admin/invoices/reconcile", s.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/admin/invoices/reconcile?dry_run=true", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		DryRun  bool `json:"dry_run"`
		Scanned int  `json:"scanned"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.DryRun)
	assert.Zero(t, report.Scanned)
}
