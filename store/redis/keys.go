package redis

// Key prefixes for primary entity storage.
const (
	prefixEndpoint = "storehook:ep:"
	prefixLog      = "storehook:log:"
)

// Key prefixes for unique indexes.
const (
	uniqueEndpointURL = "storehook:u:ep:url:"
)

// Sorted set indexes. Lex sets hold IDs at score 0 so ZREVRANGEBYLEX walks
// them newest first; zLogCreated is scored by creation time for purges.
const (
	zEndpointAll  = "storehook:z:ep:all"
	zLogAll       = "storehook:z:log:all"
	zLogEndpoint  = "storehook:z:log:ep:" // + endpoint ID
	zLogCreated   = "storehook:z:log:created"
	sEventMembers = "storehook:s:event:" // + event type
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}
