package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kagisom/gatehouse/internal/register"
	"github.com/kagisom/gatehouse/pkg/config"
	"github.com/kagisom/gatehouse/pkg/db/models"
	pkgerrors "github.com/kagisom/gatehouse/pkg/errors"
	"github.com/kagisom/gatehouse/pkg/types"
)

const syncPath = "/api/sync"

// Payload is the full-collection batch shipped to the central server.
type Payload struct {
	Visitors []models.Visitor `json:"visitors"`
	Visits   []models.Visit   `json:"visits"`
}

// Client pushes the local register to the central server.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   register.Store
}

// NewClient builds a push client from the sync settings.
func NewClient(cfg config.SyncConfig, store register.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		store:   store,
	}
}

// Push reads every visitor and visit from the local store and POSTs them to
// the central server as one batch. Transport failures and non-2xx statuses
// come back as transport errors so the caller can retry on the next cycle.
func (c *Client) Push(ctx context.Context) error {
	visitors, err := c.store.AllVisitors(ctx)
	if err != nil {
		return fmt.Errorf("reading visitors: %w", err)
	}
	visits, err := c.store.AllVisits(ctx)
	if err != nil {
		return fmt.Errorf("reading visits: %w", err)
	}
	if visitors == nil {
		visitors = []models.Visitor{}
	}
	if visits == nil {
		visits = []models.Visit{}
	}

	body, err := json.Marshal(Payload{Visitors: visitors, Visits: visits})
	if err != nil {
		return fmt.Errorf("encoding sync payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+syncPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "central server unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeTransport, rejectionMessage(resp))
	}
	return nil
}

func rejectionMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var parsed types.SyncResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
			return fmt.Sprintf("sync rejected with status %d: %s", resp.StatusCode, parsed.Error)
		}
	}
	return fmt.Sprintf("sync rejected with status %d", resp.StatusCode)
}
