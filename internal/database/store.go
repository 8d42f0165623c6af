package database

import (
	"context"
	"fmt"
)

// Storage backends for plan states
const (
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// PlanStore keeps the plan state blob of each profile
type PlanStore interface {
	LoadPlanState(ctx context.Context, userID string) ([]byte, error)
	SavePlanState(ctx context.Context, userID string, data []byte) error
	DeletePlanState(ctx context.Context, userID string) error
}

// OpenPlanStore returns the plan store for backend. The SQL store needs
// Connect to have been called. The returned func releases the store.
func OpenPlanStore(backend, redisURL string) (PlanStore, func() error, error) {
	switch backend {
	case "", BackendSQL:
		if DB == nil {
			return nil, nil, fmt.Errorf("database is not connected")
		}
		return NewPlanStateRepository(), func() error { return nil }, nil
	case BackendRedis:
		store, err := NewRedisStore(redisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
