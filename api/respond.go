package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/store"
)

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	// Marshal first so a failure can still produce a clean 500
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large")
		status = http.StatusRequestEntityTooLarge
		jsonData, _ = json.Marshal(ErrorResponse{
			Error:  "Response too large",
			Status: "error",
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	r.writeError(w, err, nil)
}

// WriteMutationError renders err along with the failure notification the
// mutation raised.
func (r Responder) WriteMutationError(w http.ResponseWriter, req *http.Request, err error) {
	r.writeError(w, err, ctxGetNotifications(req.Context()))
}

func (r Responder) writeError(w http.ResponseWriter, err error, notifications []store.Notification) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:         "Internal Server Error",
			Status:        "error",
			Notifications: notifications,
		})
		return
	}

	response := ErrorResponse{
		Error:         apiErr.Message(),
		Status:        "error",
		Field:         apiErr.Field,
		Notifications: notifications,
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Str("cause", apiErr.GetFullError()).Msg(apiErr.Error())
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}

// WriteMutation renders the written row together with the request's notifications.
func (r Responder) WriteMutation(w http.ResponseWriter, req *http.Request, status int, data any) {
	r.WriteJSONStatus(w, status, MutationResponse{
		Data:          data,
		Notifications: ctxGetNotifications(req.Context()),
	})
}

// decodeJSON reads a JSON body of at most maxBytes into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, payloadType string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewMaxBodySizeExceededError(maxBytes)
		}
		return errs.NewMalformedPayloadError(payloadType, err)
	}
	return nil
}
