package catalog_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/xraph/storehook/catalog"
)

func TestCatalogAllowList(t *testing.T) {
	c := catalog.New()

	for _, name := range []string{
		"purchase.completed", "purchase.refunded", "subscription.created",
		"subscription.cancelled", "lead.captured", "coupon.redeemed",
		"product.created", "product.updated", "access.granted",
		"access.revoked", "test.event",
	} {
		if !c.Has(name) {
			t.Errorf("expected %q on the allow-list", name)
		}
	}

	if c.Has("invoice.created") {
		t.Error("unexpected event type on the allow-list")
	}
}

func TestCatalogNamesSorted(t *testing.T) {
	names := catalog.New().Names()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}

	list := catalog.New().List()
	if len(list) != len(names) {
		t.Fatalf("List() has %d entries, Names() has %d", len(list), len(names))
	}
}

func TestCatalogExampleFallback(t *testing.T) {
	c := catalog.New()

	var known map[string]any
	if err := json.Unmarshal(c.Example("purchase.completed"), &known); err != nil {
		t.Fatal(err)
	}
	if known["order_id"] == nil {
		t.Fatalf("expected purchase example, got %v", known)
	}

	var generic map[string]any
	if err := json.Unmarshal(c.Example("no.such.event"), &generic); err != nil {
		t.Fatal(err)
	}
	if generic["test"] != true {
		t.Fatalf("expected generic example, got %v", generic)
	}
}

func TestCatalogExamplesSatisfySchemas(t *testing.T) {
	c := catalog.New()

	for _, d := range c.List() {
		if err := c.Validate(d.Name, c.Example(d.Name)); err != nil {
			t.Errorf("%s: example does not satisfy schema: %v", d.Name, err)
		}
	}
}

func TestCatalogValidate(t *testing.T) {
	c := catalog.New()

	if err := c.Validate("lead.captured", map[string]any{"source": "form"}); err == nil {
		t.Fatal("expected error for lead without email")
	}
	if err := c.Validate("lead.captured", map[string]any{"email": "x@y.io"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Validate("coupon.redeemed", "anything"); err != nil {
		t.Fatalf("schema-less type should accept any data: %v", err)
	}
	if err := c.Validate("unknown.event", nil); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestCatalogExtraDefinitions(t *testing.T) {
	c := catalog.New(catalog.Definition{
		Name:    "affiliate.paid",
		Example: json.RawMessage(`{"affiliate_id":"aff_1"}`),
	})

	if !c.Has("affiliate.paid") {
		t.Fatal("extra definition not registered")
	}
	if string(c.Example("affiliate.paid")) != `{"affiliate_id":"aff_1"}` {
		t.Fatalf("unexpected example %s", c.Example("affiliate.paid"))
	}
}
