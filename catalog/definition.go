package catalog

import "encoding/json"

// Definition describes one storefront event type that endpoints may
// subscribe to.
type Definition struct {
	// Name is the dot-separated event type name ("<resource>.<action>").
	Name string `json:"name"`

	// Description explains when the event fires.
	Description string `json:"description"`

	// Group categorizes event types for listing.
	Group string `json:"group"`

	// Schema is an optional JSON Schema the trigger data must satisfy.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Example is the mock data sent by test-sends.
	Example json.RawMessage `json:"example,omitempty"`
}

// genericExample is sent by test-sends for event types without an example.
var genericExample = json.RawMessage(`{"message":"This is a test webhook from your store.","test":true}`)

var builtin = []Definition{
	{
		Name:        "purchase.completed",
		Description: "A customer completed checkout and payment succeeded.",
		Group:       "purchase",
		Schema: json.RawMessage(`{
			"type": "object",
			"required": ["order_id", "product_id", "amount", "currency"],
			"properties": {
				"order_id": {"type": "string"},
				"product_id": {"type": "string"},
				"amount": {"type": "integer", "minimum": 0},
				"currency": {"type": "string", "minLength": 3, "maxLength": 3},
				"customer_email": {"type": "string"}
			}
		}`),
		Example: json.RawMessage(`{"order_id":"ord_test_123","product_id":"prod_test_456","product_name":"Sample Product","amount":2900,"currency":"usd","customer_email":"customer@example.com"}`),
	},
	{
		Name:        "purchase.refunded",
		Description: "A completed purchase was refunded.",
		Group:       "purchase",
		Schema: json.RawMessage(`{
			"type": "object",
			"required": ["order_id", "amount"],
			"properties": {
				"order_id": {"type": "string"},
				"amount": {"type": "integer", "minimum": 0}
			}
		}`),
		Example: json.RawMessage(`{"order_id":"ord_test_123","amount":2900,"currency":"usd","reason":"requested_by_customer"}`),
	},
	{
		Name:        "subscription.created",
		Description: "A customer started a recurring subscription.",
		Group:       "subscription",
		Example:     json.RawMessage(`{"subscription_id":"sub_test_123","product_id":"prod_test_456","customer_email":"customer@example.com","interval":"month","amount":900,"currency":"usd"}`),
	},
	{
		Name:        "subscription.cancelled",
		Description: "A subscription was cancelled.",
		Group:       "subscription",
		Example:     json.RawMessage(`{"subscription_id":"sub_test_123","customer_email":"customer@example.com","cancel_at_period_end":true}`),
	},
	{
		Name:        "lead.captured",
		Description: "A visitor submitted their email through a lead magnet.",
		Group:       "lead",
		Schema: json.RawMessage(`{
			"type": "object",
			"required": ["email"],
			"properties": {
				"email": {"type": "string", "minLength": 3}
			}
		}`),
		Example: json.RawMessage(`{"email":"lead@example.com","product_id":"prod_test_456","source":"landing_page"}`),
	},
	{
		Name:        "coupon.redeemed",
		Description: "A coupon code was applied to a completed purchase.",
		Group:       "coupon",
		Example:     json.RawMessage(`{"coupon_code":"LAUNCH20","order_id":"ord_test_123","discount_amount":580,"currency":"usd"}`),
	},
	{
		Name:        "product.created",
		Description: "A product was published to the storefront.",
		Group:       "product",
		Example:     json.RawMessage(`{"product_id":"prod_test_456","name":"Sample Product","price":2900,"currency":"usd"}`),
	},
	{
		Name:        "product.updated",
		Description: "A product's details or price changed.",
		Group:       "product",
		Example:     json.RawMessage(`{"product_id":"prod_test_456","name":"Sample Product","price":3900,"currency":"usd"}`),
	},
	{
		Name:        "access.granted",
		Description: "A customer was granted access to gated content.",
		Group:       "access",
		Example:     json.RawMessage(`{"customer_email":"customer@example.com","product_id":"prod_test_456","order_id":"ord_test_123"}`),
	},
	{
		Name:        "access.revoked",
		Description: "A customer's access to gated content was removed.",
		Group:       "access",
		Example:     json.RawMessage(`{"customer_email":"customer@example.com","product_id":"prod_test_456","reason":"refund"}`),
	},
	{
		Name:        "test.event",
		Description: "Synthetic event sent by endpoint test-sends.",
		Group:       "test",
		Example:     genericExample,
	},
}
