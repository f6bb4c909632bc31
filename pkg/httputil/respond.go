package httputil

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// DefaultBodyLimit caps request bodies read by ReadBody.
const DefaultBodyLimit = 8 << 20

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Line    int         `json:"line,omitempty"`
	Column  int         `json:"column,omitempty"`
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidColor,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidConfig, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeUnbalancedInput, errors.ErrCodeMalformedInput:
		return http.StatusUnprocessableEntity
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorBody and returns the status used.
// Messages of internal errors are not exposed.
func WriteError(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	body := ErrorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}

	var e *errors.Error
	if stderrors.As(err, &e) {
		body.Line, body.Column = e.Line, e.Column
	}
	if body.Code == "" {
		body.Code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		body.Message = http.StatusText(status)
	}
	if status == http.StatusRequestEntityTooLarge {
		body.Code = errors.ErrCodeInvalidInput
		body.Message = "request body too large"
	}
	WriteJSON(w, status, body)
	return status
}

// ReadBody reads the request body, failing once it exceeds limit bytes.
// A limit of zero uses DefaultBodyLimit.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	return data, nil
}

// BoolParam parses the query parameter name. A parameter given without a
// value ("?color") counts as true; a missing one is false.
func BoolParam(r *http.Request, name string) (bool, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return false, nil
	}
	v := q.Get(name)
	if v == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
	}
	return b, nil
}
