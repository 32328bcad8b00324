package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// decodeJSON reads a JSON object body into v. An empty body leaves v as is.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ValidationError{Field: "body", Message: "Request body too large."}
		}
		return ValidationError{Field: "body", Message: msgInvalidJSON}
	}
	return nil
}
