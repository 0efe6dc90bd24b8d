package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/kitshelf/internal/imaging"
	"github.com/erazemk/kitshelf/internal/model"
	"github.com/erazemk/kitshelf/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

type validationResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields"`
}

// writeError maps a domain error to a status code. Unknown errors are logged
// and reported as 500 with msg.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, validationResponse{Error: model.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "kit not found")
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, "kit belongs to another user")
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, imaging.ErrUnsupportedType), errors.Is(err, imaging.ErrDecode):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, imaging.ErrInvalidArgument):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), msg, "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, msg)
	}
}
