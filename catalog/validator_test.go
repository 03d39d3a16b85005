package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/storehook/catalog"
)

var amountSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"amount": {"type": "number"},
		"currency": {"type": "string"}
	},
	"required": ["amount", "currency"]
}`)

func TestValidatorEmptySchema(t *testing.T) {
	v := catalog.NewValidator()

	if err := v.Validate(nil, map[string]any{"key": "value"}); err != nil {
		t.Fatal("empty schema should skip validation, got:", err)
	}
}

func TestValidatorValidPayload(t *testing.T) {
	v := catalog.NewValidator()

	data := map[string]any{"amount": 100.50, "currency": "USD"}
	if err := v.Validate(amountSchema, data); err != nil {
		t.Fatal("valid payload should pass, got:", err)
	}
}

func TestValidatorMissingRequired(t *testing.T) {
	v := catalog.NewValidator()

	if err := v.Validate(amountSchema, map[string]any{"amount": 1}); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestValidatorStructData(t *testing.T) {
	v := catalog.NewValidator()

	type charge struct {
		Amount   int    `json:"amount"`
		Currency string `json:"currency"`
	}

	if err := v.Validate(amountSchema, charge{Amount: 100, Currency: "EUR"}); err != nil {
		t.Fatal("struct payload should pass, got:", err)
	}
}

func TestValidatorRawJSONData(t *testing.T) {
	v := catalog.NewValidator()

	if err := v.Validate(amountSchema, json.RawMessage(`{"amount":"ten","currency":"USD"}`)); err == nil {
		t.Fatal("expected validation error for wrong type")
	}
}

func TestValidatorCaching(t *testing.T) {
	v := catalog.NewValidator()
	data := map[string]any{"amount": 1, "currency": "USD"}

	for i := 0; i < 3; i++ {
		if err := v.Validate(amountSchema, data); err != nil {
			t.Fatal(err)
		}
	}
}

func TestValidatorBadSchema(t *testing.T) {
	v := catalog.NewValidator()

	if err := v.Validate(json.RawMessage(`{"type": 12}`), map[string]any{}); err == nil {
		t.Fatal("expected compile error")
	}
}
