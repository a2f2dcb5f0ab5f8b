package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/domain"
	"github.com/fjod/go_cart/caja-service/internal/service"
)

func TestStartRecognition(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEmpty bool
	}{
		{"no body", "", false},
		{"polling", `{"start_empty":false}`, false},
		{"start empty", `{"start_empty":true}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockService{IsPolling: !tt.wantEmpty}
			router := NewRouter(svc, RouterConfig{})

			rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/recognition", tt.body, "caja-1")
			require.Equal(t, http.StatusAccepted, rec.Code)
			assert.Equal(t, tt.wantEmpty, svc.StartEmpty)
			assert.Equal(t, !tt.wantEmpty, decode[SessionResponse](t, rec).Recognizing)
		})
	}
}

func TestStartRecognition_InvalidJSON(t *testing.T) {
	router := NewRouter(&MockService{}, RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/recognition", `{"start_empty":`, "caja-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartRecognition_ShuttingDown(t *testing.T) {
	router := NewRouter(&MockService{Err: service.ErrRegisterClosed}, RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/recognition", "", "caja-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting_down", decode[ErrorResponse](t, rec).Code)
}

func TestStopRecognition(t *testing.T) {
	svc := &MockService{IsPolling: true}
	router := NewRouter(svc, RouterConfig{})

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/customer/recognition", "", "caja-3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.Stopped)
	assert.False(t, decode[SessionResponse](t, rec).Recognizing)
}

func TestLookup_Outcomes(t *testing.T) {
	sess := domain.NewSession("caja-1")
	sess.BindCustomer(domain.Customer{DocumentNumber: "999"})
	svc := &MockService{Sess: sess, Outcome: binder.LookupNewCustomer}
	router := NewRouter(svc, RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/lookup", `{"document_number":" 999 "}`, "caja-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[LookupResponse](t, rec)
	assert.Equal(t, "new_customer", resp.Outcome)
	require.NotNil(t, resp.Session.Customer)
	assert.Equal(t, "999", resp.Session.Customer.DocumentNumber)
	assert.Equal(t, " 999 ", svc.LastDoc)
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "backend error",
			err:        fmt.Errorf("%w: %w", binder.ErrLookupFailed, &backend.StatusError{StatusCode: 500, Message: "db"}),
			wantStatus: http.StatusBadGateway,
			wantCode:   "lookup_failed",
		},
		{
			name:       "breaker open",
			err:        fmt.Errorf("%w: %w", binder.ErrLookupFailed, backend.ErrBackendUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "backend_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&MockService{Err: tt.err}, RouterConfig{})

			rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/lookup", `{"document_number":"1"}`, "caja-1")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestUpdateCustomer(t *testing.T) {
	svc := &MockService{}
	router := NewRouter(svc, RouterConfig{})

	body := `{"full_name":"Ana Gómez","document_number":"1020","email":"ana@example.com","city":"Cali"}`
	rec := doRequest(t, router, http.MethodPut, "/api/v1/customer", body, "caja-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Customer{FullName: "Ana Gómez", DocumentNumber: "1020", Email: "ana@example.com", City: "Cali"}, svc.LastEdit)
}

func TestNewCustomer(t *testing.T) {
	sess := domain.NewSession("caja-1")
	sess.BindCustomer(domain.Customer{})
	svc := &MockService{Sess: sess}
	router := NewRouter(svc, RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/customer/new", "", "caja-1")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SessionResponse](t, rec)
	require.NotNil(t, resp.Customer)
	assert.True(t, resp.Customer.IsEmpty())
}
