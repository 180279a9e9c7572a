package httpHandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/authentication-service/authapi"
	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/service"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/apperrors"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/middleware"
)

type testAPI struct {
	router *gin.Engine
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()

	auth, err := authapi.New(context.Background(), authapi.Options{
		Backend: authapi.BackendMemory,
		Secret:  []byte("test-secret"),
		Hash:    authapi.LightHashParams,
		Logger:  logger,
	})
	require.NoError(t, err)

	svc, err := service.NewConsignmentService(store.NewMemoryStore(), kafka.NopPublisher{}, logger)
	require.NoError(t, err)

	r := gin.New()
	middleware.Setup(r, middleware.DefaultConfig("test", logger))
	require.NoError(t, RegisterValidators())
	auth.RegisterRoutes(r.Group("/users"))
	NewConsignmentHandler(svc, logger).RegisterRoutes(r.Group("/consignment"), auth.RequireToken())

	api := &testAPI{router: r}
	w := api.json(http.MethodPost, "/users/register", map[string]string{
		"firstName": "Ana", "lastName": "Silva", "email": "ana@example.com",
		"phoneNumber": "+91 98765 43210", "companyName": "Acme Exports",
		"userRole": "exporter", "primaryCountry": "IN", "password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.json(http.MethodPost, "/users/authenticate", map[string]string{
		"email": "ana@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login authapi.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	api.token = "Bearer " + login.Token
	return api
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	if a.token != "" {
		req.Header.Set("Authorization", a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) json(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.serve(req)
}

func (a *testAPI) multipart(t *testing.T, fields map[string]string, invoice []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if invoice != nil {
		fw, err := mw.CreateFormFile("commercial_invoice", "invoice.pdf")
		require.NoError(t, err)
		_, err = fw.Write(invoice)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/consignment/add-consignment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req)
}

func validFields() map[string]string {
	return map[string]string{
		"sender_name":      "Acme Exports",
		"sender_address":   "12 MG Road, Pune",
		"sender_country":   "IN",
		"sender_mail":      "ops@acme.example",
		"receiver_name":    "Globex",
		"receiver_address": "1 Main St",
		"receiver_country": "US",
		"shipment_id":      "IN-US-240320-4821",
		"shipment_date":    "2024-03-20",
		"PackageQuantity":  "3",
		"HS_code":          "620520",
		"totalWeight":      "42.5",
		"Item_desc":        "Cotton shirts",
	}
}

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) create(t *testing.T, fields map[string]string, invoice []byte) string {
	t.Helper()
	w := a.multipart(t, fields, invoice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[struct {
		Success bool   `json:"success"`
		UUID    string `json:"uuid"`
	}](t, w)
	require.True(t, body.Success)
	return body.UUID
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	w := api.json(http.MethodGet, "/consignment/fetch-consignments", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Token is missing", decode[errorBody](t, w).Message)
}

func TestAddConsignment(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(t, validFields(), []byte("%PDF-1.4"))

	w := api.json(http.MethodGet, "/consignment/fetch-consignment/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "pending", got["compliant"])
	assert.Equal(t, float64(3), got["package_quantity"])
	assert.Equal(t, true, got["has_commercial_invoice"])

	w = api.multipart(t, validFields(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Shipment ID already exists", decode[errorBody](t, w).Message)
}

func TestAddConsignmentValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]string)
		wantField string
	}{
		{"int mismatch", func(f map[string]string) { f["PackageQuantity"] = "three" }, "PackageQuantity"},
		{"float mismatch", func(f map[string]string) { f["totalWeight"] = "heavy" }, "totalWeight"},
		{"bad date", func(f map[string]string) { f["shipment_date"] = "20/03/2024" }, "shipment_date"},
		{"missing name", func(f map[string]string) { delete(f, "sender_name") }, "sender_name"},
		{"unknown country", func(f map[string]string) { f["receiver_country"] = "FR" }, "receiver_country"},
		{"same country", func(f map[string]string) { f["receiver_country"] = "IN" }, "receiver_country"},
	}

	api := newTestAPI(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(fields)
			w := api.multipart(t, fields, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decode[errorBody](t, w)
			assert.False(t, body.Success)
			assert.Contains(t, body.Details, tt.wantField)
		})
	}
}

func TestFetchConsignments(t *testing.T) {
	api := newTestAPI(t)

	w := api.json(http.MethodGet, "/consignment/fetch-consignments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No consignments found", decode[errorBody](t, w).Message)

	api.create(t, validFields(), nil)
	w = api.json(http.MethodGet, "/consignment/fetch-consignments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	for _, path := range []string{"/consignment/fetch-consignment/not-a-uuid", "/consignment/fetch-consignment/00000000-0000-0000-0000-000000000001"} {
		w = api.json(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Consignment not found", decode[errorBody](t, w).Message)
	}
}

func TestDownloadInvoice(t *testing.T) {
	api := newTestAPI(t)
	withPDF := api.create(t, validFields(), []byte("%PDF-1.4 body"))

	fields := validFields()
	fields["shipment_id"] = "IN-US-240320-0001"
	without := api.create(t, fields, nil)

	w := api.json(http.MethodGet, "/consignment/download-invoice/"+withPDF, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `invoice_IN-US-240320-4821.pdf`)
	assert.Equal(t, "%PDF-1.4 body", w.Body.String())

	w = api.json(http.MethodGet, "/consignment/download-invoice/"+without, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invoice not found", decode[errorBody](t, w).Message)
}

func TestUpdateCompliance(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(t, validFields(), nil)

	w := api.json(http.MethodPut, "/consignment/update-compliance/"+id, map[string]string{"compliant": "approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid compliance status", decode[errorBody](t, w).Message)

	w = api.json(http.MethodPut, "/consignment/update-compliance/"+id, map[string]string{"compliant": "compliant"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.json(http.MethodGet, "/consignment/fetch-consignment/"+id, nil)
	assert.Equal(t, "compliant", decode[map[string]any](t, w)["compliant"])
}

func TestComplianceCheck(t *testing.T) {
	api := newTestAPI(t)

	w := api.json(http.MethodPost, "/consignment/compliance-check", map[string]any{
		"originCountry":      "US",
		"destinationCountry": "EU",
		"hsCode":             "8471",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[map[string]any](t, w)
	assert.Equal(t, float64(55), result["score"])
	assert.Equal(t, "High", result["riskLevel"])

	assert.NotContains(t, result, "fieldErrors")

	t.Run("unreadable fields are scored as missing", func(t *testing.T) {
		w := api.json(http.MethodPost, "/consignment/compliance-check", map[string]any{
			"originCountry":      "US",
			"destinationCountry": "EU",
			"hsCode":             "12345",
			"weight":             "heavy",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[ComplianceCheckResponse](t, w)
		assert.Equal(t, 55, result.Score)
		assert.Equal(t, compliance.StatusPending, result.Status)
		assert.Equal(t, compliance.RiskHigh, result.RiskLevel)
		assert.Equal(t, "must be a non-negative number", result.FieldErrors["weight"])
	})

	t.Run("unknown country is reported", func(t *testing.T) {
		w := api.json(http.MethodPost, "/consignment/compliance-check", map[string]any{
			"originCountry": "Atlantis",
			"hsCode":        "847130",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[ComplianceCheckResponse](t, w)
		assert.Equal(t, 85, result.Score, "only the missing invoice is deducted")
		assert.Contains(t, result.FieldErrors, "originCountry")
	})

	t.Run("body that is not JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/consignment/compliance-check", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := api.serve(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStoredComplianceAndReport(t *testing.T) {
	api := newTestAPI(t)
	id := api.create(t, validFields(), []byte("%PDF-1.4"))

	w := api.json(http.MethodGet, "/consignment/compliance/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(100), body["score"])
	assert.Equal(t, "IN-US-240320-4821", body["shipment_id"])

	w = api.json(http.MethodGet, "/consignment/report/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Compliance Report - IN-US-240320-4821")
	assert.Contains(t, w.Body.String(), "window.print()")
}

func TestSearchHSCode(t *testing.T) {
	api := newTestAPI(t)

	w := api.json(http.MethodPost, "/consignment/search-hs-code", map[string]string{
		"main_category": "Textiles", "sub_category": "Cotton Shirts", "destination_country": "EU",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "62052000", decode[string](t, w))

	w = api.json(http.MethodPost, "/consignment/search-hs-code", map[string]string{
		"main_category": "Textiles", "sub_category": "Spacesuits", "destination_country": "EU",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.json(http.MethodPost, "/consignment/search-hs-code", map[string]string{
		"main_category": "Textiles", "sub_category": "Cotton Shirts", "destination_country": "FR",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing consignment", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "Consignment not found"},
		{"duplicate shipment", store.ErrDuplicateShipmentID, http.StatusConflict, "Shipment ID already exists"},
		{"bad status", service.ErrInvalidStatus, http.StatusBadRequest, "Invalid compliance status"},
		{"store timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "Consignment store is temporarily unavailable"},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "an internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
			assert.Equal(t, tt.wantMsg, got.Message)
			assert.NotEqual(t, apperrors.CodeValidationError, got.Code)
		})
	}
}
