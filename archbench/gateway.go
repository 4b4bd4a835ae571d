package archbench

import (
	"context"
	"errors"
)

// ErrEntityNotFound is returned by ToolGateway.GetState when the entity does
// not exist. It is the only gateway error an architecture may translate into
// a Failure outcome; every other error is a transport or contract problem and
// surfaces as Error.
var ErrEntityNotFound = errors.New("entity not found")

// Entity is the compact descriptor returned by entity listings.
type Entity struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
}

// StateRecord is the full state of one entity.
type StateRecord struct {
	EntityID   string         `json:"entity_id"`
	Name       string         `json:"name"`
	Domain     string         `json:"domain"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ToolGateway is the consumed device-control contract. Implementations must
// surface network and auth failures as errors, never as silent empty results,
// and must never panic past this boundary.
type ToolGateway interface {
	// ListEntitiesByDomain returns the entities of one domain, ordered
	// with the requested domain first. An empty domain lists everything.
	ListEntitiesByDomain(ctx context.Context, domain string) ([]Entity, error)

	// GetState reads one entity's state. A missing entity yields
	// ErrEntityNotFound.
	GetState(ctx context.Context, entityID string) (*StateRecord, error)

	// CallService invokes a domain service (light/turn_on, lock/lock, …)
	// against one entity.
	CallService(ctx context.Context, domain, service, entityID string, data map[string]any) error
}
