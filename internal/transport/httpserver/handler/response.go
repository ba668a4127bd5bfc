package handler

import (
	"encoding/json"
	"net/http"

	"family-calendar-go/pkg/apperr"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondError maps the error taxonomy onto HTTP. Expected domain failures
// are logged at business level, everything else as internal.
func (h *Handlers) respondError(w http.ResponseWriter, op string, err error, args ...any) {
	kind := apperr.KindOf(err)
	status, code := statusFor(kind)

	switch kind {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindAuthorization, apperr.KindConflict:
		h.log.BusinessError(op, err, args...)
	default:
		h.log.InternalError(op, err, args...)
	}

	message := apperr.MessageOf(err)
	if message == "" || kind == apperr.KindUnknown {
		message = "internal error"
	}
	writeError(w, status, code, message)
}

func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, "invalid_request"
	case apperr.KindNotFound:
		return http.StatusNotFound, "not_found"
	case apperr.KindAuthorization:
		return http.StatusForbidden, "forbidden"
	case apperr.KindConflict:
		return http.StatusConflict, "conflict"
	case apperr.KindExternalService:
		return http.StatusBadGateway, "external_service_error"
	case apperr.KindPersistence:
		return http.StatusInternalServerError, "persistence_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
