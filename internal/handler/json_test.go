package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		PriceID string `json:"price_id" validate:"required"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
		field   string
	}{
		{"valid", `{"price_id": "price_1"}`, false, ""},
		{"empty body", ``, true, ""},
		{"syntax error", `{"price_id": `, true, ""},
		{"two objects", `{"price_id": "a"} {"price_id": "b"}`, true, ""},
		{"missing required", `{}`, true, "price_id"},
		{"unknown field", `{"price_id": "a", "extra": 1}`, true, "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.input))
			var dst body
			err := decodeJSON(req, "test", &dst)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "price_1", dst.PriceID)
				return
			}
			require.Error(t, err)
			if tt.field == "" {
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
				return
			}
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}
