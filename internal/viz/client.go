package viz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/san-kum/tetrasim/internal/sim"
)

// Client talks to a running tetrasim API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Visualization(ctx context.Context) (sim.Visualization, error) {
	var v sim.Visualization
	err := c.do(ctx, http.MethodGet, "/api/visualization/data", nil, &v)
	return v, err
}

func (c *Client) State(ctx context.Context) (sim.Snapshot, error) {
	var s sim.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/simulation/state", nil, &s)
	return s, err
}

func (c *Client) Start(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/simulation/start", nil, nil)
}

func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/simulation/stop", nil, nil)
}

func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/simulation/reset", nil, nil)
}

// CreateRandom adds a particle with a generated id and random parameters.
func (c *Client) CreateRandom(ctx context.Context) (string, error) {
	var out struct {
		ParticleID string `json:"particle_id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/oscillators/create", nil, &out)
	return out.ParticleID, err
}

func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/oscillators/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, e.Detail)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
