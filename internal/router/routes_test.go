package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/octobees/contacts-manager/api/internal/config"
	"github.com/octobees/contacts-manager/api/internal/dto"
	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/handler"
	"github.com/octobees/contacts-manager/api/internal/metrics"
	middlewarepkg "github.com/octobees/contacts-manager/api/internal/middleware"
	"github.com/octobees/contacts-manager/api/internal/repository"
	"github.com/octobees/contacts-manager/api/internal/service"
)

func newTestServer(t *testing.T, limit config.RateLimitConfig) *echo.Echo {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.NewContactsService(repository.NewInmemContactsRepository(), service.WithMetrics(m))

	e := echo.New()
	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Metrics(m))
	Register(e, &config.Config{RateLimitWrites: limit}, reg, Handlers{Contacts: handler.NewContactsHandler(svc)})
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_ContactLifecycle(t *testing.T) {
	e := newTestServer(t, config.RateLimitConfig{})

	rec := do(e, http.MethodPost, "/contacts", `{
		"firstName": "Jane", "lastName": "Doe", "email": "jane@x.com", "phone": "555",
		"address": {"street": "1 Main", "city": "X", "state": "Y", "country": "Z", "zipCode": "00000"},
		"tags": ["client"]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on create, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
	var created dto.CreateContactResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	rec = do(e, http.MethodPut, "/contacts/"+created.ID, `{"status":"customer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/contacts?status=customer&tags=client", "")
	var contacts []entity.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &contacts); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != created.ID {
		t.Fatalf("unexpected list result: %+v", contacts)
	}

	rec = do(e, http.MethodDelete, "/contacts?id="+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/contacts/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `contacts_operations_total{operation="create",outcome="ok"} 1`) {
		t.Fatalf("expected create operation metric, got:\n%s", body)
	}
	if !strings.Contains(body, `route="/contacts/:id"`) {
		t.Fatalf("expected route template label, got:\n%s", body)
	}
}

func TestRegister_Healthz(t *testing.T) {
	e := newTestServer(t, config.RateLimitConfig{})
	rec := do(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_WriteRateLimit(t *testing.T) {
	e := newTestServer(t, config.RateLimitConfig{Requests: 1, Interval: time.Hour})

	if rec := do(e, http.MethodDelete, "/contacts/a", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected first write to reach handler, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/contacts/b", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second write to be limited, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/contacts", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected reads to bypass limiter, got %d", rec.Code)
	}
}
