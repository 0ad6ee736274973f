package mvretail

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/demoplan/demoplan/engine/core"
)

const (
	pushClassName = "MVScheduledmPlan"
	wireVersion   = "3.0.1"
)

// Assignment is a push request in structured form. Start and End are
// converted to the upstream-local offset form on the wire.
type Assignment struct {
	RepID      string
	MPlanID    string
	LocationID string
	Start      time.Time
	End        time.Time
}

// wireTimestamp renders t as YYYY-MM-DDTHH:MM:SS±HH:MM in the configured
// local offset.
func (c *Client) wireTimestamp(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02T15:04:05-07:00")
}

// pushBody builds the scheduleMplanEvent form body by hand. The upstream
// endpoint is order-sensitive and rejects unencoded datetime colons
// silently, so the body is never built from a form map.
func pushBody(repID, mplanID, locationID, start, end string) string {
	var b strings.Builder
	b.WriteString("ClassName=" + pushClassName)
	b.WriteString("&RepID=" + url.QueryEscape(repID))
	b.WriteString("&mPlanID=" + url.QueryEscape(mplanID))
	b.WriteString("&LocationID=" + url.QueryEscape(locationID))
	b.WriteString("&Start=" + url.QueryEscape(start))
	b.WriteString("&End=" + url.QueryEscape(end))
	b.WriteString("&hash=")
	b.WriteString("&v=" + wireVersion)
	b.WriteString("&PlanningOverride=true")
	return b.String()
}

func deleteBody(externalRef string) string {
	var b strings.Builder
	b.WriteString("ClassName=" + pushClassName)
	b.WriteString("&ScheduledmPlanID=" + url.QueryEscape(externalRef))
	b.WriteString("&hash=")
	b.WriteString("&v=" + wireVersion)
	return b.String()
}

type pushResponse struct {
	ScheduledMPlanID wireID `json:"ScheduledmPlanID"`
	ID               wireID `json:"id"`
}

// PushAssignment creates or overrides one upstream assignment and returns
// the upstream assignment id. An accepted push without an id is treated as
// permanent failure: the id is what keeps retries idempotent.
func (c *Client) PushAssignment(ctx context.Context, a Assignment) (string, error) {
	body := pushBody(a.RepID, a.MPlanID, a.LocationID, c.wireTimestamp(a.Start), c.wireTimestamp(a.End))
	res, err := c.do(ctx, pushPath, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(body).
			Post(pushPath)
	})
	if err != nil {
		return "", err
	}
	if err := classify(res, "push assignment"); err != nil {
		return "", err
	}
	var parsed pushResponse
	if err := unmarshalBody(res, &parsed); err != nil {
		return "", core.WrapError(core.KindUpstreamPermanent, err, "push assignment: unreadable response")
	}
	ref := string(parsed.ScheduledMPlanID)
	if ref == "" {
		ref = string(parsed.ID)
	}
	if ref == "" {
		return "", core.NewError(core.KindUpstreamPermanent, "push assignment: upstream accepted without an assignment id")
	}
	return ref, nil
}

// DeleteAssignment removes one upstream assignment by its upstream id. A 404
// counts as success: the logical effect already holds.
func (c *Client) DeleteAssignment(ctx context.Context, externalRef string) error {
	if externalRef == "" {
		return core.NewError(core.KindValidation, "delete assignment: empty upstream ref")
	}
	res, err := c.do(ctx, deletePath, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(deleteBody(externalRef)).
			Post(deletePath)
	})
	if err != nil {
		return err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil
	}
	return classify(res, "delete assignment")
}
