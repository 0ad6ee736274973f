package uc

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/scheduler/constraint"
	"github.com/demoplan/demoplan/pkg/config"
)

// -----------------------------------------------------------------------------
// ListProposals
// -----------------------------------------------------------------------------

// ProposalGroups is the review view of a run: what got placed, what displaces
// an existing assignment, what could not be placed, and the same placements
// replayed day by day.
type ProposalGroups struct {
	NewlyScheduled []*scheduler.PendingSchedule
	Swaps          []*scheduler.PendingSchedule
	Failed         []*scheduler.PendingSchedule
	DailyPreview   []*DayPreview
}

// DayPreview lists one day's placements in start order.
type DayPreview struct {
	Date  core.Date
	Items []*scheduler.PendingSchedule
}

type ListProposals struct {
	store scheduler.Store
	loc   *time.Location
	runID core.ID
}

func NewListProposals(store scheduler.Store, loc *time.Location, runID core.ID) *ListProposals {
	return &ListProposals{store: store, loc: loc, runID: runID}
}

func (uc *ListProposals) Execute(ctx context.Context) (*ProposalGroups, error) {
	repos := uc.store.Repos()
	if _, err := repos.Runs.GetByID(ctx, uc.runID); err != nil {
		return nil, err
	}
	proposals, err := repos.Proposals.ListByRun(ctx, uc.runID)
	if err != nil {
		return nil, err
	}
	groups := &ProposalGroups{}
	byDate := make(map[core.Date][]*scheduler.PendingSchedule)
	for _, p := range proposals {
		switch {
		case !p.Placed():
			groups.Failed = append(groups.Failed, p)
			continue
		case p.IsSwap:
			groups.Swaps = append(groups.Swaps, p)
		default:
			groups.NewlyScheduled = append(groups.NewlyScheduled, p)
		}
		d := core.DateOf(p.ScheduleDatetime.In(uc.loc))
		byDate[d] = append(byDate[d], p)
	}
	for d, items := range byDate {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ScheduleDatetime.Before(*items[j].ScheduleDatetime)
		})
		groups.DailyPreview = append(groups.DailyPreview, &DayPreview{Date: d, Items: items})
	}
	sort.Slice(groups.DailyPreview, func(i, j int) bool {
		return groups.DailyPreview[i].Date.Before(groups.DailyPreview[j].Date)
	})
	return groups, nil
}

// -----------------------------------------------------------------------------
// EditProposal
// -----------------------------------------------------------------------------

// EditProposalInput carries the fields an edit may change. Nil fields keep
// the proposal's current value.
type EditProposalInput struct {
	EmployeeID *string
	Datetime   *time.Time
	Actor      string
}

type EditProposal struct {
	store     scheduler.Store
	cfg       *config.SchedulerConfig
	loc       *time.Location
	pendingID core.ID
	input     *EditProposalInput
}

func NewEditProposal(
	store scheduler.Store,
	cfg *config.SchedulerConfig,
	loc *time.Location,
	pendingID core.ID,
	input *EditProposalInput,
) *EditProposal {
	return &EditProposal{store: store, cfg: cfg, loc: loc, pendingID: pendingID, input: input}
}

// Execute revalidates the edited assignment against committed schedules and
// rewrites the proposal when no hard constraint fails.
func (uc *EditProposal) Execute(ctx context.Context) (*scheduler.PendingSchedule, error) {
	repos := uc.store.Repos()
	prop, err := repos.Proposals.GetByID(ctx, uc.pendingID)
	if err != nil {
		return nil, err
	}
	if !prop.Status.Reviewable() {
		return nil, core.NewError(core.KindConflict, "proposal %s is %s and can no longer be edited", prop.ID, prop.Status)
	}

	employeeID := uc.input.EmployeeID
	if employeeID == nil {
		employeeID = prop.EmployeeID
	}
	datetime := uc.input.Datetime
	if datetime == nil {
		datetime = prop.ScheduleDatetime
	}
	if employeeID == nil || datetime == nil {
		return nil, core.NewError(core.KindValidation, "an assignment needs both an employee and a datetime")
	}

	ev, err := repos.Events.GetByRefNum(ctx, prop.EventRefNum)
	if err != nil {
		return nil, err
	}
	emp, err := repos.Roster.GetByID(ctx, *employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, core.NewError(core.KindValidation, "employee %s is inactive", emp.ID)
	}

	start := datetime.In(uc.loc)
	facts, err := loadCommittedFacts(ctx, repos, emp.ID, core.DateOf(start), uc.loc, prop.DisplacedScheduleID)
	if err != nil {
		return nil, err
	}
	validator := constraint.NewValidator(constraint.Config{
		CorePerDayCap:   uc.cfg.CorePerDayCap,
		OtherNoonExempt: uc.cfg.OtherNoonExempt,
	})
	in := &constraint.Input{Event: ev, Employee: emp, Start: start}
	if viols := validator.HardViolations(in, facts); len(viols) > 0 {
		msgs := make([]string, 0, len(viols))
		for _, v := range viols {
			msgs = append(msgs, v.Message)
		}
		return nil, core.NewError(core.KindValidation, "edit rejected: %s", strings.Join(msgs, "; "))
	}

	before := *prop
	err = uc.store.WithTx(ctx, func(r *scheduler.Repos) error {
		if err := r.Proposals.UpdateAssignment(ctx, prop.ID, emp.ID, start); err != nil {
			return err
		}
		after, err := r.Proposals.GetByID(ctx, prop.ID)
		if err != nil {
			return err
		}
		prop = after
		return r.Audit.Append(ctx, audit.New(
			uc.input.Actor, "scheduler.proposal.edit", "pending_schedule", prop.ID.String(), &before, after,
		))
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}
