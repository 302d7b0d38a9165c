// Package hass publishes the waste schedule as Home Assistant sensors through its REST API.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	timeout          = 10 * time.Second
	entityPrefix     = "sensor.him_next_"
	NextEntityID     = entityPrefix + "collection"
	deviceClassDate  = "date"
	attrLastRefresh  = "last_refresh"
	attrFriendlyName = "friendly_name"
)

// State is the body of POST /api/states/<entity_id>
type State struct {
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Publisher pushes sensor states to Home Assistant
type Publisher struct {
	baseURL    string
	token      string
	httpClient *http.Client
	now        func() time.Time
	loc        *time.Location
}

// NewPublisher creates a publisher for the Home Assistant instance at baseURL.
// loc decides which day counts as today; nil means UTC.
func NewPublisher(baseURL, token string, loc *time.Location) (*Publisher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("home assistant URL is required")
	}
	if token == "" {
		return nil, fmt.Errorf("home assistant token is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Publisher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
		loc: loc,
	}, nil
}

// EntityID returns the sensor entity of a category
func EntityID(c waste.Category) string {
	return entityPrefix + string(c)
}

// States builds every sensor state for a schedule
func States(s *waste.Schedule, today time.Time) map[string]State {
	// nil encodes as null until the first successful refresh
	var lastRefresh interface{}
	if s != nil && !s.LastRefresh.IsZero() {
		lastRefresh = s.LastRefresh.UTC().Format(time.RFC3339)
	}

	states := make(map[string]State, len(waste.Categories)+1)
	for _, c := range waste.Categories {
		states[EntityID(c)] = State{
			State: s.Value(c),
			Attributes: map[string]interface{}{
				"device_class":   deviceClassDate,
				"icon":           c.Icon(),
				attrFriendlyName: "HIM next " + c.Label(),
				attrLastRefresh:  lastRefresh,
			},
		}
	}

	next := waste.Unknown
	if d, ok := s.Next(today); ok {
		next = waste.FormatDate(d)
	}
	attrs := map[string]interface{}{
		"device_class":   deviceClassDate,
		"icon":           waste.CollectionIcon,
		attrFriendlyName: "HIM next collection",
		attrLastRefresh:  lastRefresh,
	}
	for k, v := range s.Values() {
		attrs[k] = v
	}
	states[NextEntityID] = State{State: next, Attributes: attrs}

	return states
}

// Publish pushes every sensor of the schedule. It stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, s *waste.Schedule) error {
	states := States(s, p.now().In(p.loc))

	ids := make([]string, 0, len(states))
	for _, c := range waste.Categories {
		ids = append(ids, EntityID(c))
	}
	ids = append(ids, NextEntityID)

	for _, id := range ids {
		if err := p.postState(ctx, id, states[id]); err != nil {
			logger.IncrCounter("hass.publish.error")
			return fmt.Errorf("publishing %s: %w", id, err)
		}
	}

	logger.IncrCounter("hass.publish.success")
	logger.Debug("Published sensors to Home Assistant", logger.Fields{
		"entities": len(ids),
	})
	return nil
}

// OnRefresh publishes after each successful refresh. Failures are logged only.
func (p *Publisher) OnRefresh(ctx context.Context, s *waste.Schedule, _ []*waste.Change) {
	if err := p.Publish(ctx, s); err != nil {
		logger.Error("Failed to publish Home Assistant sensors", logger.Fields{
			"property_id": s.PropertyID,
		}, err)
	}
}

func (p *Publisher) postState(ctx context.Context, entityID string, state State) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	url := fmt.Sprintf("%s/api/states/%s", p.baseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	// 200 updates an existing entity, 201 creates it
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("home assistant API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
