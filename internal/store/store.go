// Package store provides the row-oriented data access layer the agent tools
// query through. A RowStore hides whether rows come from the platform's
// Firestore database, a tenant's own SQL or MongoDB database, or memory.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Row is a single record keyed by camelCase field name.
type Row map[string]any

// Op is a comparison operator in a normalized predicate.
type Op string

const (
	OpEqual Op = "=="
	OpGTE   Op = ">="
	OpLTE   Op = "<="
)

// Predicate is one normalized filter condition.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Order describes the sort applied to a query.
type Order struct {
	Field string
	Desc  bool
}

// Filters is the adapter-neutral query description built by the tool layer.
type Filters struct {
	Predicates []Predicate
	OrderBy    *Order
	// Limit caps the number of rows returned. Zero means no limit.
	Limit int
}

// Field describes one column or document field.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema is the field list of a collection.
type Schema struct {
	Collection string  `json:"collection"`
	Fields     []Field `json:"fields"`
}

// RowStore is implemented by every data adapter.
type RowStore interface {
	// Query returns the rows of collection matching f. The result is never nil.
	Query(ctx context.Context, collection string, f Filters) ([]Row, error)
	// Schema describes the fields of collection.
	Schema(ctx context.Context, collection string) (Schema, error)
	Close() error
}

// ConnectionType names a supported database engine.
type ConnectionType string

const (
	TypeFirestore  ConnectionType = "firestore"
	TypePostgreSQL ConnectionType = "postgresql"
	TypeMySQL      ConnectionType = "mysql"
	TypeMongoDB    ConnectionType = "mongodb"
	TypeSQLite     ConnectionType = "sqlite"
)

// Connection describes an external database an agent is attached to.
type Connection struct {
	Type             ConnectionType `json:"type"`
	Host             string         `json:"host,omitempty"`
	Port             int            `json:"port,omitempty"`
	Database         string         `json:"database,omitempty"`
	Username         string         `json:"username,omitempty"`
	Password         string         `json:"password,omitempty"`
	ConnectionString string         `json:"connectionString,omitempty"`
	SSL              bool           `json:"ssl,omitempty"`
}

// IsDefault reports whether the connection refers to the platform's own store.
func (c *Connection) IsDefault() bool {
	return c == nil || c.Type == "" || c.Type == TypeFirestore
}

// ErrUnsupportedConnection is returned by Open for unknown engine types.
var ErrUnsupportedConnection = errors.New("unsupported database type")

// ErrLocalConnection is returned by OpenExternal for engines that read files
// on the gateway host.
var ErrLocalConnection = errors.New("database type is only available as the configured default store")

// OpenExternal connects to a database described by a caller. Only network
// engines are accepted; sqlite stays reserved for the server configuration.
func OpenExternal(ctx context.Context, conn Connection) (RowStore, error) {
	if conn.Type == TypeSQLite {
		return nil, fmt.Errorf("%w: %q", ErrLocalConnection, conn.Type)
	}
	return Open(ctx, conn)
}

// Open connects to the external database described by conn. The caller owns
// the returned store and must Close it.
func Open(ctx context.Context, conn Connection) (RowStore, error) {
	switch conn.Type {
	case TypePostgreSQL, TypeMySQL, TypeSQLite:
		return OpenSQL(ctx, conn)
	case TypeMongoDB:
		return OpenMongo(ctx, conn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConnection, conn.Type)
	}
}
