package shared

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryBody struct {
	Query string `json:"query"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"query": "SELECT 1"}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"query": "SELECT 1",}`,
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
		{
			name:        "unknown field",
			requestBody: `{"sql": "SELECT 1"}`,
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:        "trailing value",
			requestBody: `{"query": "SELECT 1"} {"query": "SELECT 2"}`,
			wantErr:     true,
			errContains: "single JSON value",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var target queryBody
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "SELECT 1", target.Query)
		})
	}
}

// errorReader is a request body that always fails
type errorReader struct{}

func (er errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target queryBody
	err := DecodeJSON(req, &target)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}
