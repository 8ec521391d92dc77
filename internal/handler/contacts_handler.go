package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/contacts-manager/api/internal/dto"
	"github.com/octobees/contacts-manager/api/internal/entity"
	middlewarepkg "github.com/octobees/contacts-manager/api/internal/middleware"
	"github.com/octobees/contacts-manager/api/internal/repository"
	"github.com/octobees/contacts-manager/api/internal/service"
)

// ContactsHandler exposes the contact CRUD endpoints.
type ContactsHandler struct {
	service *service.ContactsService
}

// NewContactsHandler creates a new handler instance.
func NewContactsHandler(service *service.ContactsService) *ContactsHandler {
	return &ContactsHandler{service: service}
}

// List handles GET /contacts requests.
func (h *ContactsHandler) List(c echo.Context) error {
	filter := dto.ContactFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Tags:   parseTags(c.QueryParams()["tags"]),
		Status: strings.TrimSpace(c.QueryParam("status")),
	}

	contacts, err := h.service.ListContacts(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "list contacts", err)
	}
	return Success(c, http.StatusOK, contacts)
}

// Get handles GET /contacts/:id requests.
func (h *ContactsHandler) Get(c echo.Context) error {
	contact, err := h.service.GetContact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "get contact", err)
	}
	return Success(c, http.StatusOK, contact)
}

// Create handles POST /contacts requests.
func (h *ContactsHandler) Create(c echo.Context) error {
	var req entity.Contact
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request body")
	}

	contact, err := h.service.CreateContact(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "create contact", err)
	}
	return Success(c, http.StatusOK, dto.CreateContactResponse{ID: contact.ID, LegacyID: contact.ID})
}

// Update handles PUT /contacts/:id requests with a partial contact body.
func (h *ContactsHandler) Update(c echo.Context) error {
	var patch dto.ContactPatch
	if err := c.Bind(&patch); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request body")
	}
	return h.update(c, c.Param("id"), patch)
}

// UpdateFromBody handles PUT /contacts requests that carry the identifier in
// the body as "id" or "_id".
func (h *ContactsHandler) UpdateFromBody(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid request body")
	}

	var ref struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
	}
	var patch dto.ContactPatch
	if err := json.Unmarshal(body, &ref); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request body")
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		return Error(c, http.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(ref.ID)
	if id == "" {
		id = strings.TrimSpace(ref.LegacyID)
	}
	if id == "" {
		return Error(c, http.StatusBadRequest, "contact id is required")
	}
	return h.update(c, id, patch)
}

func (h *ContactsHandler) update(c echo.Context, id string, patch dto.ContactPatch) error {
	if _, err := h.service.UpdateContact(c.Request().Context(), id, patch); err != nil {
		return h.fail(c, "update contact", err)
	}
	return Success(c, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Delete handles DELETE /contacts/:id requests.
func (h *ContactsHandler) Delete(c echo.Context) error {
	return h.delete(c, c.Param("id"))
}

// DeleteByQuery handles DELETE /contacts?id= requests.
func (h *ContactsHandler) DeleteByQuery(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return Error(c, http.StatusBadRequest, "contact id is required")
	}
	return h.delete(c, id)
}

func (h *ContactsHandler) delete(c echo.Context, id string) error {
	if err := h.service.DeleteContact(c.Request().Context(), id); err != nil {
		return h.fail(c, "delete contact", err)
	}
	return Success(c, http.StatusOK, dto.SuccessResponse{Success: true})
}

// fail maps service errors onto HTTP responses. Store failures are logged and
// answered with a generic message.
func (h *ContactsHandler) fail(c echo.Context, op string, err error) error {
	var validationErr service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, repository.ErrContactNotFound):
		return Error(c, http.StatusNotFound, "contact not found")
	default:
		log.Printf("request_id=%s op=%q error=%q", middlewarepkg.RequestIDFromContext(c), op, err)
		return Error(c, http.StatusInternalServerError, "failed to "+op)
	}
}

// parseTags splits comma-joined tag parameters, dropping empty entries.
func parseTags(values []string) []string {
	var tags []string
	for _, value := range values {
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
