// Package integration provides end-to-end integration tests for the delivery
// management API. Tests run against a real PostgreSQL database and exercise
// the full stack from HTTP handler to repository, including the transactional
// outbox rows written alongside business mutations.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addressDTO "github.com/allisson/delivery/internal/address/http/dto"
	"github.com/allisson/delivery/internal/app"
	"github.com/allisson/delivery/internal/config"
	deliveryDTO "github.com/allisson/delivery/internal/delivery/http/dto"
	deliveryUsecase "github.com/allisson/delivery/internal/delivery/usecase"
	"github.com/allisson/delivery/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
}

// makeRequest performs an HTTP request and returns the response and body.
// patientID is set as the X-Patient-Id header when non-empty.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	patientID string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if patientID != "" {
		req.Header.Set("X-Patient-Id", patientID)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// createDelivery inserts a delivery through the use case, the same path the
// order request consumer takes.
func (ctx *integrationTestContext) createDelivery(t *testing.T, orderID int64) uuid.UUID {
	t.Helper()

	useCase, err := ctx.container.DeliveryUseCase()
	require.NoError(t, err, "failed to get delivery use case")

	delivery, err := useCase.Create(context.Background(), deliveryUsecase.CreateDeliveryInput{
		OrderID:         orderID,
		DeliveryAddress: json.RawMessage(`{"street_address":"742 Evergreen Terrace","city":"Springfield"}`),
	})
	require.NoError(t, err, "failed to create delivery")

	return delivery.ID
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T) *integrationTestContext {
	t.Helper()

	testutil.SkipIfNoPostgres(t)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	db := testutil.SetupPostgresDB(t)

	cfg := &config.Config{
		DBDriver:             "postgres",
		DBConnectionString:   testutil.GetPostgresTestDSN(),
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		WorkerInterval:       time.Second,
		WorkerBatchSize:      100,
		WorkerMaxRetries:     3,
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil")

	testServer := httptest.NewServer(handler)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.CleanupPostgresDB(t, ctx.db)
		testutil.TeardownDB(t, ctx.db)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	resp, _ := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeliveryLifecycle(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	deliveryID := ctx.createDelivery(t, 1001)

	// Creation writes an outbox event in the same transaction
	var outboxCount int
	err := ctx.db.QueryRow(
		"SELECT COUNT(*) FROM outbox_events WHERE event_type = 'orders.delivery_created' AND status = 'pending'",
	).Scan(&outboxCount)
	require.NoError(t, err)
	assert.Equal(t, 1, outboxCount, "delivery creation should enqueue an outbox event")

	// List shows the delivery in PREPARING
	resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/deliveries", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listResponse deliveryDTO.DeliveryListResponse
	require.NoError(t, json.Unmarshal(body, &listResponse))
	require.Len(t, listResponse.Deliveries, 1)
	assert.Equal(t, deliveryID, listResponse.Deliveries[0].ID)
	assert.Equal(t, int64(1001), listResponse.Deliveries[0].OrderID)
	assert.Equal(t, "PREPARING", listResponse.Deliveries[0].Status)

	// Move it forward
	resp, body = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "EN_ROUTE", "description": "courier picked up the package"},
		"",
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	var updated deliveryDTO.DeliveryResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "EN_ROUTE", updated.Status)

	// Detail includes the audit log entry
	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/deliveries/"+deliveryID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail deliveryDTO.DeliveryDetailResponse
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, deliveryID, detail.ID)
	require.Len(t, detail.Logs, 1)
	assert.Equal(t, "EN_ROUTE", detail.Logs[0].Status)
	assert.Equal(t, "courier picked up the package", detail.Logs[0].Description)

	// Deliver it; this enqueues the delivery_success event
	resp, body = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "DELIVERED"},
		"",
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	err = ctx.db.QueryRow(
		"SELECT COUNT(*) FROM outbox_events WHERE event_type = 'orders.delivery_success' AND status = 'pending'",
	).Scan(&outboxCount)
	require.NoError(t, err)
	assert.Equal(t, 1, outboxCount, "delivered transition should enqueue a success event")
}

func TestDeliveryStatusTransitionRules(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	deliveryID := ctx.createDelivery(t, 2001)

	// Backward transitions are rejected
	resp, _ := ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "EN_ROUTE"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "PREPARING"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Same-status transitions are rejected too
	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "EN_ROUTE"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// DELIVERED is terminal
	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "DELIVERED"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "EN_ROUTE"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Unknown status values are rejected
	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/deliveries/%s/status", deliveryID),
		map[string]string{"status": "LOST"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeliveryNotFound(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	resp, _ := ctx.makeRequest(t, http.MethodGet,
		"/v1/deliveries/"+uuid.Must(uuid.NewV7()).String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/deliveries/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeliveryAddressCRUD(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	createBody := map[string]interface{}{
		"recipient_name": "Jane Doe",
		"phone_number":   "+15555550100",
		"street_address": "742 Evergreen Terrace",
		"city":           "Springfield",
		"state":          "IL",
		"postal_code":    "62704",
		"country":        "US",
		"is_default":     true,
	}

	// Create requires the patient header
	resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/patients/delivery-addresses", createBody, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/patients/delivery-addresses", createBody, "42")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

	var created addressDTO.DeliveryAddressResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(42), created.PatientID)
	assert.Equal(t, "Jane Doe", created.RecipientName)
	assert.True(t, created.IsDefault)

	// Creating a second default clears the first
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/patients/delivery-addresses", createBody, "42")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var second addressDTO.DeliveryAddressResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.True(t, second.IsDefault)

	resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/patients/delivery-addresses/my-delivery-addresses", nil, "42")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list addressDTO.DeliveryAddressListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.DeliveryAddresses, 2)
	assert.Equal(t, second.ID, list.DeliveryAddresses[0].ID, "default address should come first")
	assert.True(t, list.DeliveryAddresses[0].IsDefault)
	assert.False(t, list.DeliveryAddresses[1].IsDefault)

	// Public lookup by ID needs no header
	resp, body = ctx.makeRequest(t, http.MethodGet, fmt.Sprintf("/v1/delivery-addresses/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched addressDTO.DeliveryAddressResponse
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	// Partial update
	resp, body = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/patients/delivery-addresses/%d", created.ID),
		map[string]string{"city": "Shelbyville"}, "42")
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	var updated addressDTO.DeliveryAddressResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Shelbyville", updated.City)
	assert.Equal(t, "Jane Doe", updated.RecipientName, "unspecified fields should be unchanged")

	// Another patient cannot update or delete it
	resp, _ = ctx.makeRequest(t, http.MethodPatch,
		fmt.Sprintf("/v1/patients/delivery-addresses/%d", created.ID),
		map[string]string{"city": "Elsewhere"}, "43")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodDelete,
		fmt.Sprintf("/v1/patients/delivery-addresses/%d", created.ID), nil, "43")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Owner can delete
	resp, _ = ctx.makeRequest(t, http.MethodDelete,
		fmt.Sprintf("/v1/patients/delivery-addresses/%d", created.ID), nil, "42")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ctx.makeRequest(t, http.MethodGet, fmt.Sprintf("/v1/delivery-addresses/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeliveryAddressValidation(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/patients/delivery-addresses",
		map[string]string{"recipient_name": "Jane Doe"}, "42")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "body: %s", body)
}

func TestDuplicateOrderRequestIsIdempotent(t *testing.T) {
	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	useCase, err := ctx.container.DeliveryUseCase()
	require.NoError(t, err)

	input := deliveryUsecase.CreateDeliveryInput{
		OrderID:         3001,
		DeliveryAddress: json.RawMessage(`{"street_address":"742 Evergreen Terrace","city":"Springfield"}`),
	}

	_, err = useCase.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = useCase.Create(context.Background(), input)
	assert.Error(t, err, "second create for the same order should conflict")

	// The failed create must not leave a second delivery or outbox event behind
	var deliveryCount, outboxCount int
	require.NoError(t, ctx.db.QueryRow("SELECT COUNT(*) FROM deliveries WHERE order_id = 3001").Scan(&deliveryCount))
	require.NoError(t, ctx.db.QueryRow(
		"SELECT COUNT(*) FROM outbox_events WHERE event_type = 'orders.delivery_created'").Scan(&outboxCount))
	assert.Equal(t, 1, deliveryCount)
	assert.Equal(t, 1, outboxCount)
}
