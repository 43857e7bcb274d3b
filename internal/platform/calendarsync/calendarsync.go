// Package calendarsync pushes appointment changes to an external calendar
// system. Sync is best effort: callers log failures and carry on, a booking
// never fails because the calendar backend is down.
package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Event is the external representation of a booked appointment.
type Event struct {
	AppointmentID string    `json:"appointment_id"`
	Summary       string    `json:"summary"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// Calendar is implemented by external calendar backends.
type Calendar interface {
	UpsertEvent(ctx context.Context, ev Event) error
	RemoveEvent(ctx context.Context, appointmentID string) error
}

// NoopCalendar discards all events. Used when no sync backend is configured.
type NoopCalendar struct{}

func (NoopCalendar) UpsertEvent(ctx context.Context, ev Event) error             { return nil }
func (NoopCalendar) RemoveEvent(ctx context.Context, appointmentID string) error { return nil }

// RecordingCalendar captures events in memory for tests.
type RecordingCalendar struct {
	mu       sync.Mutex
	upserts  []Event
	removals []string

	ShouldFail bool
	FailMsg    string
}

func NewRecordingCalendar() *RecordingCalendar {
	return &RecordingCalendar{}
}

func (c *RecordingCalendar) UpsertEvent(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ShouldFail {
		return c.failErr()
	}
	c.upserts = append(c.upserts, ev)
	return nil
}

func (c *RecordingCalendar) RemoveEvent(ctx context.Context, appointmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ShouldFail {
		return c.failErr()
	}
	c.removals = append(c.removals, appointmentID)
	return nil
}

func (c *RecordingCalendar) failErr() error {
	msg := c.FailMsg
	if msg == "" {
		msg = "simulated calendar failure"
	}
	return fmt.Errorf("%s", msg)
}

// Upserts returns a copy of the captured upsert events.
func (c *RecordingCalendar) Upserts() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.upserts))
	copy(out, c.upserts)
	return out
}

// Removals returns a copy of the captured removal IDs.
func (c *RecordingCalendar) Removals() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.removals))
	copy(out, c.removals)
	return out
}

// HTTPCalendar syncs events to a remote calendar service over HTTP.
// Upserts PUT to {base}/events/{id}, removals DELETE the same path.
type HTTPCalendar struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCalendar(baseURL string) *HTTPCalendar {
	return &HTTPCalendar{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPCalendar) UpsertEvent(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode calendar event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/events/"+ev.AppointmentID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *HTTPCalendar) RemoveEvent(ctx context.Context, appointmentID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/events/"+appointmentID, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *HTTPCalendar) do(req *http.Request) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar sync request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("calendar sync returned status %d", resp.StatusCode)
	}
	return nil
}
