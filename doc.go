// Package storehook is the webhook delivery subsystem of a digital-product
// storefront.
//
// It signs, dispatches, logs, tests and replays outbound HTTP notifications
// to subscriber endpoints registered by store administrators. Every
// dispatch writes exactly one delivery log entry; retries are always
// operator initiated and re-send the stored bytes unchanged.
//
// Key features:
//   - HMAC-SHA256 hex signatures over the exact request body
//   - Bounded concurrent fan-out with a hard per-request timeout
//   - Private-network guard at registration and at dial time
//   - Cursor-paginated endpoint and log listings
//   - Composable store pattern (Postgres, SQLite, MongoDB, Redis, Memory)
//   - Stdlib admin API with a Forge-native mirror
//
// Quick start:
//
//	h, err := storehook.New(
//	    storehook.WithStore(memory.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Stop(context.Background())
//
//	h.Trigger(ctx, "purchase.completed", map[string]any{
//	    "order_id":   "ord_123",
//	    "product_id": "prod_456",
//	    "amount":     2900,
//	    "currency":   "usd",
//	})
package storehook
