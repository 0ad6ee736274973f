package mvretail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/demoplan/demoplan/engine/core"
)

// wireID tolerates the upstream habit of sending ids as either JSON strings
// or numbers.
type wireID string

func (w *wireID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		s = ""
	}
	*w = wireID(s)
	return nil
}

// wireTime parses the datetime forms the upstream mixes: offset-qualified,
// bare local, and bare date.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		w.Time = time.Time{}
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			w.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized upstream datetime %q", s)
}

// Rep is one upstream field representative, mapped for roster upsert.
type Rep struct {
	ExternalID string
	Name       string
	JobTitle   string
}

type repWire struct {
	ID         wireID `json:"id"`
	RepID      wireID `json:"repId"`
	EmployeeID wireID `json:"employeeId"`
	Title      string `json:"title"`
	Role       string `json:"role"`
}

// PlanningEvent is one upstream planning event, mapped for event upsert.
type PlanningEvent struct {
	ExternalID   string
	LocationMVID string
	ProjectName  string
	Start        time.Time
	Due          time.Time
}

type planningEventWire struct {
	MPlanID     wireID   `json:"mPlanID"`
	ID          wireID   `json:"id"`
	LocationID  wireID   `json:"locationID"`
	ProjectName string   `json:"projectName"`
	Name        string   `json:"name"`
	StartDate   wireTime `json:"startDate"`
	DueDate     wireTime `json:"dueDate"`
}

// ScheduledEvent is one upstream assignment already on the calendar.
type ScheduledEvent struct {
	UpstreamRef string
	MPlanID     string
	RepID       string
	Start       time.Time
}

type scheduledEventWire struct {
	ScheduledMPlanID wireID   `json:"ScheduledmPlanID"`
	MPlanID          wireID   `json:"mPlanID"`
	RepID            wireID   `json:"repId"`
	Start            wireTime `json:"start"`
}

type windowRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (c *Client) windowBody(from, to time.Time) windowRequest {
	return windowRequest{
		StartDate: from.In(c.loc).Format("2006-01-02"),
		EndDate:   to.In(c.loc).Format("2006-01-02"),
	}
}

func unmarshalBody(res *resty.Response, out any) error {
	return json.Unmarshal(res.Body(), out)
}

// ListAvailableReps pulls the rep roster for a window. The external id is
// repId with employeeId as fallback; name comes from title and job title
// from role.
func (c *Client) ListAvailableReps(ctx context.Context, from, to time.Time) ([]Rep, error) {
	res, err := c.do(ctx, availableRepsPath, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/json").
			SetBody(c.windowBody(from, to)).
			Post(availableRepsPath)
	})
	if err != nil {
		return nil, err
	}
	if err := classify(res, "list available reps"); err != nil {
		return nil, err
	}
	var wire []repWire
	if err := unmarshalBody(res, &wire); err != nil {
		return nil, core.WrapError(core.KindUpstreamPermanent, err, "list available reps: unreadable response")
	}
	reps := make([]Rep, 0, len(wire))
	for _, w := range wire {
		externalID := string(w.RepID)
		if externalID == "" {
			externalID = string(w.EmployeeID)
		}
		if externalID == "" {
			continue
		}
		reps = append(reps, Rep{ExternalID: externalID, Name: w.Title, JobTitle: w.Role})
	}
	return reps, nil
}

// ListPlanningEvents pulls the full planning backlog.
func (c *Client) ListPlanningEvents(ctx context.Context) ([]PlanningEvent, error) {
	res, err := c.do(ctx, planningEventsPath, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{}).
			Post(planningEventsPath)
	})
	if err != nil {
		return nil, err
	}
	if err := classify(res, "list planning events"); err != nil {
		return nil, err
	}
	var wire []planningEventWire
	if err := unmarshalBody(res, &wire); err != nil {
		return nil, core.WrapError(core.KindUpstreamPermanent, err, "list planning events: unreadable response")
	}
	events := make([]PlanningEvent, 0, len(wire))
	for _, w := range wire {
		externalID := string(w.MPlanID)
		if externalID == "" {
			externalID = string(w.ID)
		}
		name := w.ProjectName
		if name == "" {
			name = w.Name
		}
		if externalID == "" || name == "" {
			continue
		}
		events = append(events, PlanningEvent{
			ExternalID:   externalID,
			LocationMVID: string(w.LocationID),
			ProjectName:  name,
			Start:        w.StartDate.Time,
			Due:          w.DueDate.Time,
		})
	}
	return events, nil
}

// ListScheduledEvents pulls the assignments already committed upstream for a
// window.
func (c *Client) ListScheduledEvents(ctx context.Context, from, to time.Time) ([]ScheduledEvent, error) {
	res, err := c.do(ctx, scheduledEventsPath, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/json").
			SetBody(c.windowBody(from, to)).
			Post(scheduledEventsPath)
	})
	if err != nil {
		return nil, err
	}
	if err := classify(res, "list scheduled events"); err != nil {
		return nil, err
	}
	var wire []scheduledEventWire
	if err := unmarshalBody(res, &wire); err != nil {
		return nil, core.WrapError(core.KindUpstreamPermanent, err, "list scheduled events: unreadable response")
	}
	events := make([]ScheduledEvent, 0, len(wire))
	for _, w := range wire {
		if w.ScheduledMPlanID == "" || w.MPlanID == "" {
			continue
		}
		events = append(events, ScheduledEvent{
			UpstreamRef: string(w.ScheduledMPlanID),
			MPlanID:     string(w.MPlanID),
			RepID:       string(w.RepID),
			Start:       w.Start.Time,
		})
	}
	return events, nil
}
