package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/store"
)

const maxPayloadBytes = 1 << 20

// resourceHandler serves the admin screens of one collection. P is the input
// struct a request body decodes into; *P validates itself and builds a T.
type resourceHandler[T any, P any, In interface {
	*P
	store.Input[T]
}] struct {
	responder Responder
	logger    zerolog.Logger
	resource  *store.Resource[T, In]
}

func newResourceHandler[T any, P any, In interface {
	*P
	store.Input[T]
}](resource *store.Resource[T, In]) resourceHandler[T, P, In] {
	logger := log.With().Str("handlerName", resource.Name()+"Handler").Logger()

	return resourceHandler[T, P, In]{
		responder: NewResponder(logger),
		logger:    logger,
		resource:  resource,
	}
}

func (h resourceHandler[T, P, In]) routes(r chi.Router) {
	r.Get("/", h.list())
	r.Post("/", h.create())
	r.Get("/{id}", h.get())
	r.Put("/{id}", h.update())
	r.Delete("/{id}", h.delete())
}

// list returns every row of the collection
// @Summary List collection
// @Description Lists every row of an admin collection
// @Tags Admin
// @Produce json
// @Param collection path string true "Collection" Enums(categories, subcategories, skills, experiences, education, certifications, projects)
// @Success 200 {object} ListResponse[any] "Rows and total"
// @Failure 403 {object} AccessDeniedResponse "Forbidden - Caller is not an admin"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch rows"
// @Router /admin/{collection} [get]
func (h resourceHandler[T, P, In]) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.resource.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		h.responder.WriteJSON(w, ListResponse[T]{Items: items, Total: len(items)})
	}
}

// get returns one row by id
// @Summary Get row
// @Tags Admin
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Row ID" format(uuid)
// @Success 200 {object} any "The row"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid id"
// @Failure 404 {object} ErrorResponse "Not Found - Row not found"
// @Router /admin/{collection}/{id} [get]
func (h resourceHandler[T, P, In]) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		item, err := h.resource.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, item)
	}
}

// create validates the body and inserts a row
// @Summary Create row
// @Description Validates the form body and inserts a row, reporting the outcome as a notification
// @Tags Admin
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Success 201 {object} MutationResponse "Created row and notifications"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid field"
// @Failure 409 {object} ErrorResponse "Conflict - Duplicate or missing reference"
// @Router /admin/{collection} [post]
func (h resourceHandler[T, P, In]) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := In(new(P))
		if err := decodeJSON(w, r, maxPayloadBytes, h.resource.Name(), in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		item, err := h.resource.Create(r.Context(), in)
		if err != nil {
			h.responder.WriteMutationError(w, r, err)
			return
		}
		h.responder.WriteMutation(w, r, http.StatusCreated, item)
	}
}

// update validates the body and replaces a row
// @Summary Update row
// @Tags Admin
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Row ID" format(uuid)
// @Success 200 {object} MutationResponse "Updated row and notifications"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid field"
// @Failure 404 {object} ErrorResponse "Not Found - Row not found"
// @Router /admin/{collection}/{id} [put]
func (h resourceHandler[T, P, In]) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in := In(new(P))
		if err := decodeJSON(w, r, maxPayloadBytes, h.resource.Name(), in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		item, err := h.resource.Update(r.Context(), id, in)
		if err != nil {
			h.responder.WriteMutationError(w, r, err)
			return
		}
		h.responder.WriteMutation(w, r, http.StatusOK, item)
	}
}

// delete removes a row unless other rows still depend on it
// @Summary Delete row
// @Tags Admin
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Row ID" format(uuid)
// @Success 200 {object} MutationResponse "Notifications"
// @Failure 404 {object} ErrorResponse "Not Found - Row not found"
// @Failure 409 {object} ErrorResponse "Conflict - Linked rows exist"
// @Router /admin/{collection}/{id} [delete]
func (h resourceHandler[T, P, In]) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.resource.Delete(r.Context(), id); err != nil {
			h.responder.WriteMutationError(w, r, err)
			return
		}
		h.responder.WriteMutation(w, r, http.StatusOK, nil)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError("id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError("id", "must be a UUID")
	}
	return id, nil
}
