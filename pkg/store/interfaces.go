package store

import (
	"context"

	"whodunnit/pkg/model"
)

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	HasCache(ctx context.Context, key string) (bool, error)
	SetCache(ctx context.Context, key string, val []byte) error
	ListCacheKeys(ctx context.Context, prefix string) ([]string, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// ScriptRecord is a generated party script together with the
// configuration that produced it.
type ScriptRecord struct {
	ID       string
	Title    string
	Holiday  string
	Location string
	Config   model.MysteryConfig
	Result   model.MysteryScriptResult
}

// ScriptStore handles generated-script persistence.
type ScriptStore interface {
	GetScript(ctx context.Context, id string) (*ScriptRecord, error)
	SaveScript(ctx context.Context, rec *ScriptRecord) error
	ListScripts(ctx context.Context, limit int) ([]*ScriptRecord, error)
}

// Store composes all storage interfaces.
type Store interface {
	CacheStore
	StateStore
	ScriptStore
	Close() error
}
