package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeHTTPStatus, 503, nil, "unexpected status code: %d", 503)
	assert.Equal(t, "http_status error (code 503): unexpected status code: 503", err.Error())

	err = New(ErrorTypeStructure, 0, nil, "missing key %q", "query")
	assert.Equal(t, `structure error: missing key "query"`, err.Error())
}

func TestTypeHelpers(t *testing.T) {
	base := New(ErrorTypeNetwork, 0, io.ErrUnexpectedEOF, "read failed")
	wrapped := fmt.Errorf("search page 1: %w", base)

	assert.True(t, Is(wrapped, ErrorTypeNetwork))
	assert.False(t, Is(wrapped, ErrorTypeParsing))
	assert.Equal(t, ErrorTypeNetwork, TypeOf(wrapped))
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.Equal(t, ErrorTypeUnknown, TypeOf(io.EOF))
	assert.Equal(t, 0, StatusCode(io.EOF))
	assert.Equal(t, 404, StatusCode(New(ErrorTypeHTTPStatus, 404, nil, "not found")))
}

func TestIsSuccessStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccessStatus(tt.code))
		})
	}
}
