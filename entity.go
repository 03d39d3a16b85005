package storehook

import "github.com/xraph/storehook/internal/entity"

// Entity is the base type embedded by persisted storehook objects.
type Entity = entity.Entity

// NewEntity returns an Entity with both timestamps set to the current UTC time.
func NewEntity() Entity {
	return entity.New()
}
