package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/contacts-manager/api/internal/dto"
	"github.com/octobees/contacts-manager/api/internal/entity"
	"github.com/octobees/contacts-manager/api/internal/query"
	"github.com/octobees/contacts-manager/api/internal/repository"
	"github.com/octobees/contacts-manager/api/internal/service"
)

const janeJSON = `{
	"firstName": "Jane",
	"lastName": "Doe",
	"email": "jane@x.com",
	"phone": "555",
	"company": "Acme Corp",
	"address": {"street": "1 Main", "city": "X", "state": "Y", "country": "Z", "zipCode": "00000"},
	"tags": ["client", "vip"]
}`

type brokenRepo struct {
	repository.ContactsRepository
}

func (brokenRepo) List(ctx context.Context, predicate query.Predicate) ([]entity.Contact, error) {
	return nil, &repository.StoreError{Op: "find contacts", Err: errors.New("connection reset")}
}

func newContactsHandler() (*ContactsHandler, *repository.InmemContactsRepository) {
	repo := repository.NewInmemContactsRepository()
	return NewContactsHandler(service.NewContactsService(repo)), repo
}

func serve(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func createJane(t *testing.T, h *ContactsHandler) string {
	t.Helper()
	rec := serve(t, h.Create, http.MethodPost, "/contacts", janeJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on create, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.CreateContactResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" || resp.ID != resp.LegacyID {
		t.Fatalf("expected id echoed as id and _id, got %+v", resp)
	}
	return resp.ID
}

func TestContactsHandler_CreateAndGet(t *testing.T) {
	h, _ := newContactsHandler()
	id := createJane(t, h)

	rec := serve(t, h.Get, http.MethodGet, "/contacts/"+id, "", "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var contact entity.Contact
	if err := json.Unmarshal(rec.Body.Bytes(), &contact); err != nil {
		t.Fatalf("failed to decode contact: %v", err)
	}
	if contact.ID != id || contact.Status != entity.StatusActive || contact.CreatedAt.IsZero() {
		t.Fatalf("unexpected contact: %+v", contact)
	}
	if !contact.CreatedAt.Equal(contact.UpdatedAt) {
		t.Fatalf("expected equal timestamps on create")
	}
}

func TestContactsHandler_CreateValidation(t *testing.T) {
	h, repo := newContactsHandler()

	rec := serve(t, h.Create, http.MethodPost, "/contacts", `{"firstName":"Jane"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(payload.Error, "lastName") {
		t.Fatalf("expected field name in error, got %q", payload.Error)
	}

	rec = serve(t, h.Create, http.MethodPost, "/contacts", `{"firstName":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}

	if all, _ := repo.List(context.Background(), query.All()); len(all) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(all))
	}
}

func TestContactsHandler_List(t *testing.T) {
	h, _ := newContactsHandler()
	createJane(t, h)

	tests := map[string]struct {
		target string
		count  int
	}{
		"no filter":      {target: "/contacts", count: 1},
		"search":         {target: "/contacts?search=acme", count: 1},
		"search miss":    {target: "/contacts?search=zzz", count: 0},
		"tags":           {target: "/contacts?tags=vip,other", count: 1},
		"tags miss":      {target: "/contacts?tags=other", count: 0},
		"status":         {target: "/contacts?status=active", count: 1},
		"combined miss":  {target: "/contacts?search=jane&status=lead", count: 0},
		"empty tag list": {target: "/contacts?tags=,", count: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, h.List, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var contacts []entity.Contact
			if err := json.Unmarshal(rec.Body.Bytes(), &contacts); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if contacts == nil {
				t.Fatalf("expected JSON array, got %s", rec.Body.String())
			}
			if len(contacts) != tt.count {
				t.Fatalf("expected %d contacts, got %d", tt.count, len(contacts))
			}
		})
	}
}

func TestContactsHandler_ListStoreError(t *testing.T) {
	orig := log.Writer()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	defer log.SetOutput(orig)

	h := NewContactsHandler(service.NewContactsService(brokenRepo{}))
	rec := serve(t, h.List, http.MethodGet, "/contacts", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal detail leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "connection reset") {
		t.Fatalf("expected store error to be logged, got %q", buf.String())
	}
}

func TestContactsHandler_Update(t *testing.T) {
	h, repo := newContactsHandler()
	id := createJane(t, h)

	rec := serve(t, h.Update, http.MethodPut, "/contacts/"+id, `{"status":"customer","notes":null}`, "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	stored, _ := repo.FindByID(context.Background(), id)
	if stored.Status != entity.StatusCustomer || stored.FirstName != "Jane" {
		t.Fatalf("unexpected stored contact: %+v", stored)
	}

	rec = serve(t, h.Update, http.MethodPut, "/contacts/"+id, `{"status":"vip"}`, "id", id)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", rec.Code)
	}

	rec = serve(t, h.Update, http.MethodPut, "/contacts/missing", `{"status":"lead"}`, "id", "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestContactsHandler_UpdateFromBody(t *testing.T) {
	h, repo := newContactsHandler()
	id := createJane(t, h)

	rec := serve(t, h.UpdateFromBody, http.MethodPut, "/contacts", `{"_id":"`+id+`","company":"Globex"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stored, _ := repo.FindByID(context.Background(), id)
	if stored.Company != "Globex" {
		t.Fatalf("expected company updated, got %q", stored.Company)
	}

	rec = serve(t, h.UpdateFromBody, http.MethodPut, "/contacts", `{"id":"`+id+`","jobTitle":"CTO"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with id field, got %d", rec.Code)
	}

	rec = serve(t, h.UpdateFromBody, http.MethodPut, "/contacts", `{"company":"Initech"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = serve(t, h.UpdateFromBody, http.MethodPut, "/contacts", `{"_id":"nope","company":"Initech"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestContactsHandler_Delete(t *testing.T) {
	h, _ := newContactsHandler()
	id := createJane(t, h)

	rec := serve(t, h.Delete, http.MethodDelete, "/contacts/"+id, "", "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(t, h.Delete, http.MethodDelete, "/contacts/"+id, "", "id", id)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", rec.Code)
	}

	second := createJane(t, h)
	rec = serve(t, h.DeleteByQuery, http.MethodDelete, "/contacts?id="+second, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(t, h.DeleteByQuery, http.MethodDelete, "/contacts", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = serve(t, h.Get, http.MethodGet, "/contacts/"+second, "", "id", second)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestParseTags(t *testing.T) {
	got := parseTags([]string{"a, b", "", "c,,"})
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("unexpected tags: %v", got)
	}
	if parseTags(nil) != nil {
		t.Fatalf("expected nil for no params")
	}
}
