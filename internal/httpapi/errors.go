package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
)

var classStatus = map[domain.ErrorClass]int{
	domain.ClassConflict:   http.StatusConflict,
	domain.ClassForbidden:  http.StatusForbidden,
	domain.ClassNotFound:   http.StatusNotFound,
	domain.ClassBadRequest: http.StatusBadRequest,
	domain.ClassFatal:      http.StatusInternalServerError,
}

// StatusOf maps an error to the HTTP status of its class.
func StatusOf(err error) int {
	if s, ok := classStatus[domain.ClassOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	class := domain.ClassOf(err)
	resp := contract.ErrorResponse{Error: err.Error(), Class: class}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if class == domain.ClassFatal {
		resp.Error = "internal error"
	}
	writeJSON(w, StatusOf(err), resp)
}

// decode reads a JSON body into dst. An empty body leaves dst unchanged
// when optional is set.
func decode(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("body", "invalid request body: %v", err)
	}
	return nil
}
