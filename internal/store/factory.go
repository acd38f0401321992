package store

import (
	"fmt"
	"strings"
)

const (
	EngineJSON   = "json"
	EngineSQLite = "sqlite"
)

func NewByEngine(engine string, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineSQLite:
		return NewSQLiteKV(path)
	case EngineJSON:
		return NewFileKV(path)
	default:
		return nil, fmt.Errorf("unsupported store engine: %s", engine)
	}
}
