// Package homeassistant implements the ToolGateway against the Home
// Assistant REST API.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaynamir/archbench/archbench"
)

// Gateway talks to one Home Assistant instance over its REST API.
//
// Endpoints used:
//   - GET  /api/states                          (ListEntitiesByDomain)
//   - GET  /api/states/{entity_id}              (GetState)
//   - POST /api/services/{domain}/{service}     (CallService)
//
// Authentication is a long-lived access token sent as a Bearer header.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ archbench.ToolGateway = (*Gateway)(nil)

// NewGateway creates a gateway for the Home Assistant instance at baseURL.
func NewGateway(baseURL, token string) *Gateway {
	if baseURL == "" {
		baseURL = "http://localhost:8123"
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// haState is the wire shape of one entity state.
type haState struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func (s haState) friendlyName() string {
	if name, ok := s.Attributes["friendly_name"].(string); ok {
		return name
	}
	return s.EntityID
}

func entityDomain(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i > 0 {
		return entityID[:i]
	}
	return ""
}

func (g *Gateway) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("home assistant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// ListEntitiesByDomain returns the entities of one domain; an empty domain
// lists everything, with no particular order beyond what the API returns.
func (g *Gateway) ListEntitiesByDomain(ctx context.Context, domain string) ([]archbench.Entity, error) {
	data, status, err := g.do(ctx, http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("home assistant list states: unexpected status %d", status)
	}

	var states []haState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}

	out := make([]archbench.Entity, 0, len(states))
	for _, st := range states {
		if domain != "" && entityDomain(st.EntityID) != domain {
			continue
		}
		out = append(out, archbench.Entity{EntityID: st.EntityID, Name: st.friendlyName()})
	}
	return out, nil
}

// GetState reads one entity's state; a 404 maps to ErrEntityNotFound.
func (g *Gateway) GetState(ctx context.Context, entityID string) (*archbench.StateRecord, error) {
	data, status, err := g.do(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", entityID, archbench.ErrEntityNotFound)
	default:
		return nil, fmt.Errorf("home assistant get state %s: unexpected status %d", entityID, status)
	}

	var st haState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", entityID, err)
	}
	return &archbench.StateRecord{
		EntityID:   st.EntityID,
		Name:       st.friendlyName(),
		Domain:     entityDomain(st.EntityID),
		State:      st.State,
		Attributes: st.Attributes,
	}, nil
}

// CallService invokes a domain service against one entity. Home Assistant
// answers 400 for an unknown entity on most services; that maps to
// ErrEntityNotFound so the engine can classify it as a domain failure rather
// than a transport error.
func (g *Gateway) CallService(ctx context.Context, domain, service, entityID string, data map[string]any) error {
	payload := map[string]any{"entity_id": entityID}
	for k, v := range data {
		if k != "entity_id" {
			payload[k] = v
		}
	}

	body, status, err := g.do(ctx, http.MethodPost, fmt.Sprintf("/api/services/%s/%s", domain, service), payload)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%s.%s on %s: %w", domain, service, entityID, archbench.ErrEntityNotFound)
	default:
		return fmt.Errorf("home assistant call %s.%s: status %d: %s",
			domain, service, status, strings.TrimSpace(string(body)))
	}
}
