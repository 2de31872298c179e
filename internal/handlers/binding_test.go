package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type partnerPayload struct {
	Name       string `json:"name"`
	IsCustomer bool   `json:"is_customer"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    partnerPayload
		expectError bool
	}{
		{
			name:     "nested envelope",
			key:      "partner",
			body:     `{"partner": {"name": "Al Noor Trading", "is_customer": true}}`,
			expected: partnerPayload{Name: "Al Noor Trading", IsCustomer: true},
		},
		{
			name:     "flat body",
			key:      "partner",
			body:     `{"name": "Basra Wholesale", "is_customer": true}`,
			expected: partnerPayload{Name: "Basra Wholesale", IsCustomer: true},
		},
		{
			name:     "missing key falls back to flat",
			key:      "partner",
			body:     `{"other": 1, "name": "Crescent Foods"}`,
			expected: partnerPayload{Name: "Crescent Foods"},
		},
		{
			name:        "nested content of the wrong shape",
			key:         "partner",
			body:        `{"partner": "just a string"}`,
			expectError: true,
		},
		{
			name:        "field type mismatch",
			key:         "partner",
			body:        `{"name": "X", "is_customer": "yes"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result partnerPayload
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
