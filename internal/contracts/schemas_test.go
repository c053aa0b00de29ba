package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromPath(t *testing.T) {
	assert.Equal(t, "PropertyRow/1.0.0", keyFromPath("schemas/property/v1.json"))
	assert.Equal(t, "AuthEventRow/2.0.0", keyFromPath("schemas/auth-event/v2.json"))
}

func TestValidatePropertyRow(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr bool
	}{
		{"numeric id and amounts", `{"id": 42, "title": "Depto", "price_amount": 250000, "latitude": -34.6}`, false},
		{"text columns", `{"id": "42", "price_amount": "250000", "whatsapp": "5491122334455.0", "latitude": "-34.6"}`, false},
		{"nulls allowed", `{"id": 1, "title": null, "images": null}`, false},
		{"missing id", `{"title": "Depto"}`, true},
		{"object title", `{"id": 1, "title": {"es": "Depto"}}`, true},
		{"not an object", `[1, 2]`, true},
		{"not json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePropertyRow([]byte(tt.row))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	assert.ErrorContains(t, Validate("Nope/1.0.0", []byte(`{}`)), "not found")
}
