package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/querytask/internal/api/shared"
)

// getPathUUID extracts a UUID from the URL path parameters.
// A missing or malformed value yields an error wrapping ErrInvalidTaskID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidTaskID, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", ErrInvalidTaskID, paramName)
	}

	return id, nil
}

// decodeOptionalJSON decodes the request body into v, leaving v untouched
// when the body is empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := shared.DecodeJSON(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// isBlank reports whether s has no non-space characters
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
