package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/store"
)

const maxImageBytes = 10 << 20

// ImageUploader is satisfied by *services.MediaStorage.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

type adminHandler struct {
	responder Responder
	logger    zerolog.Logger
	catalog   *store.Catalog
	images    ImageUploader
}

func newAdminHandler(catalog *store.Catalog, images ImageUploader) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder: NewResponder(logger),
		logger:    logger,
		catalog:   catalog,
		images:    images,
	}
}

// dashboard returns the count, last update and most recent entry of every collection
// @Summary Admin dashboard
// @Description Summarizes every collection for the admin landing page
// @Tags Admin
// @Produce json
// @Success 200 {object} DashboardResponse "Per-collection summary"
// @Success 202 {object} StatusResponse "Session still loading"
// @Failure 303 "Redirect to /login for anonymous callers"
// @Failure 403 {object} AccessDeniedResponse "Forbidden - Caller is not an admin"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch a collection"
// @Router /admin [get]
func (h adminHandler) dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := store.Dashboard(r.Context(), h.catalog.Summarizers()...)
		if err != nil {
			h.responder.WriteError(w, errs.NewFetchError("dashboard", err))
			return
		}
		h.responder.WriteJSON(w, DashboardResponse{Entities: summaries})
	}
}

// projectTags lists every distinct project tag
// @Summary Project tags
// @Description Lists the distinct tags used by projects, sorted
// @Tags Admin
// @Produce json
// @Success 200 {object} TagsResponse "Sorted tags"
// @Failure 403 {object} AccessDeniedResponse "Forbidden - Caller is not an admin"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Failed to fetch tags"
// @Router /admin/project-tags [get]
func (h adminHandler) projectTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.catalog.Tags.Get(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		h.responder.WriteJSON(w, TagsResponse{Tags: tags})
	}
}

// uploadImage stores the multipart "file" field and returns its public URL
// @Summary Upload project image
// @Description Stores an image in the media bucket and returns its public URL
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} UploadResponse "Public URL of the stored image"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or non-image file"
// @Failure 413 {object} ErrorResponse "Payload Too Large"
// @Failure 503 {object} ErrorResponse "Service Unavailable - Uploads are not configured"
// @Router /admin/projects/images [post]
func (h adminHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.images == nil {
			h.responder.WriteError(w, errs.NewConfigMissingError("STORAGE_BUCKET"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxImageBytes))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			return
		}
		defer file.Close()

		url, err := h.images.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, UploadResponse{URL: url})
	}
}
