package utils

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/demoplan/demoplan/engine/audit"
	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/engine/event"
	"github.com/demoplan/demoplan/engine/roster"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/schedule"
	"github.com/demoplan/demoplan/engine/scheduler"
)

// MemStore is an in-memory scheduler.Store for tests. Every repository is
// backed by guarded maps, and WithTx runs the callback against the same
// state without transactional isolation.
type MemStore struct {
	RosterRepo   *MemRosterRepo
	EventRepo    *MemEventRepo
	ScheduleRepo *MemScheduleRepo
	RotationRepo *MemRotationRepo
	RunRepo      *MemRunRepo
	ProposalRepo *MemProposalRepo
	AuditRepo    *MemAuditRepo

	// WithTxErr, when set, fails WithTx before the callback runs.
	WithTxErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		RosterRepo:   NewMemRosterRepo(),
		EventRepo:    NewMemEventRepo(),
		ScheduleRepo: NewMemScheduleRepo(),
		RotationRepo: NewMemRotationRepo(),
		RunRepo:      NewMemRunRepo(),
		ProposalRepo: NewMemProposalRepo(),
		AuditRepo:    NewMemAuditRepo(),
	}
}

func (s *MemStore) Repos() *scheduler.Repos {
	return &scheduler.Repos{
		Roster:    s.RosterRepo,
		Events:    s.EventRepo,
		Schedules: s.ScheduleRepo,
		Rotations: s.RotationRepo,
		Runs:      s.RunRepo,
		Proposals: s.ProposalRepo,
		Audit:     s.AuditRepo,
	}
}

func (s *MemStore) WithTx(_ context.Context, fn func(*scheduler.Repos) error) error {
	if s.WithTxErr != nil {
		return s.WithTxErr
	}
	return fn(s.Repos())
}

// -----
// Roster
// -----

type MemRosterRepo struct {
	mu        sync.Mutex
	employees map[string]*roster.Employee
	weekly    map[string]map[int]roster.WeeklyAvailability
	overrides map[string]map[core.Date]roster.AvailabilityOverride
	timeOff   map[string][]roster.TimeOff
}

func NewMemRosterRepo() *MemRosterRepo {
	return &MemRosterRepo{
		employees: make(map[string]*roster.Employee),
		weekly:    make(map[string]map[int]roster.WeeklyAvailability),
		overrides: make(map[string]map[core.Date]roster.AvailabilityOverride),
		timeOff:   make(map[string][]roster.TimeOff),
	}
}

func (r *MemRosterRepo) Upsert(_ context.Context, employee *roster.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *employee
	r.employees[employee.ID] = &cp
	return nil
}

func (r *MemRosterRepo) GetByID(_ context.Context, id string) (*roster.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	emp, ok := r.employees[id]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "employee %s not found", id)
	}
	cp := *emp
	return &cp, nil
}

func (r *MemRosterRepo) GetByExternalID(_ context.Context, externalID string) (*roster.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, emp := range r.employees {
		if emp.ExternalID == externalID {
			cp := *emp
			return &cp, nil
		}
	}
	return nil, core.NewError(core.KindNotFound, "employee with external id %s not found", externalID)
}

func (r *MemRosterRepo) List(_ context.Context) ([]*roster.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*roster.Employee) bool { return true }), nil
}

func (r *MemRosterRepo) ListActive(_ context.Context) ([]*roster.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e *roster.Employee) bool { return e.IsActive }), nil
}

func (r *MemRosterRepo) sorted(keep func(*roster.Employee) bool) []*roster.Employee {
	out := make([]*roster.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemRosterRepo) SetWeeklyAvailability(_ context.Context, entry *roster.WeeklyAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.weekly[entry.EmployeeID] == nil {
		r.weekly[entry.EmployeeID] = make(map[int]roster.WeeklyAvailability)
	}
	r.weekly[entry.EmployeeID][entry.Weekday] = *entry
	return nil
}

func (r *MemRosterRepo) SetAvailabilityOverride(_ context.Context, override *roster.AvailabilityOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overrides[override.EmployeeID] == nil {
		r.overrides[override.EmployeeID] = make(map[core.Date]roster.AvailabilityOverride)
	}
	r.overrides[override.EmployeeID][override.Date] = *override
	return nil
}

func (r *MemRosterRepo) AddTimeOff(_ context.Context, timeOff *roster.TimeOff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeOff[timeOff.EmployeeID] = append(r.timeOff[timeOff.EmployeeID], *timeOff)
	return nil
}

func (r *MemRosterRepo) DeleteTimeOff(_ context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for empID, entries := range r.timeOff {
		for i, t := range entries {
			if t.ID == id {
				r.timeOff[empID] = append(entries[:i], entries[i+1:]...)
				return nil
			}
		}
	}
	return core.NewError(core.KindNotFound, "time off %s not found", id)
}

func (r *MemRosterRepo) Calendars(_ context.Context, _, _ core.Date) (map[string]*roster.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*roster.Calendar, len(r.employees))
	for id := range r.employees {
		cal := &roster.Calendar{
			Weekly:    make(map[int]roster.WeeklyAvailability),
			Overrides: make(map[core.Date]roster.AvailabilityOverride),
		}
		for wd, w := range r.weekly[id] {
			cal.Weekly[wd] = w
		}
		for d, o := range r.overrides[id] {
			cal.Overrides[d] = o
		}
		cal.TimeOff = append(cal.TimeOff, r.timeOff[id]...)
		out[id] = cal
	}
	return out, nil
}

// -----
// Events
// -----

type MemEventRepo struct {
	mu      sync.Mutex
	events  map[int]*event.Event
	nextRef int
}

func NewMemEventRepo() *MemEventRepo {
	return &MemEventRepo{events: make(map[int]*event.Event), nextRef: 900000}
}

func (r *MemEventRepo) Upsert(_ context.Context, ev *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ev
	r.events[ev.ProjectRefNum] = &cp
	return nil
}

func (r *MemEventRepo) GetByRefNum(_ context.Context, refNum int) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[refNum]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "event %d not found", refNum)
	}
	cp := *ev
	return &cp, nil
}

func (r *MemEventRepo) GetByExternalID(_ context.Context, externalID string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ExternalID == externalID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, core.NewError(core.KindNotFound, "event with external id %s not found", externalID)
}

func (r *MemEventRepo) NextRefNum(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextRef++
	return r.nextRef, nil
}

func (r *MemEventRepo) ListByRefNums(_ context.Context, refNums []int) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*event.Event, 0, len(refNums))
	for _, ref := range refNums {
		if ev, ok := r.events[ref]; ok {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemEventRepo) List(_ context.Context, limit, offset int) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sortedByStart()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemEventRepo) ListUnscheduledBetween(_ context.Context, from, to time.Time) ([]*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*event.Event
	for _, ev := range r.sortedByStart() {
		if ev.IsScheduled {
			continue
		}
		if ev.StartDatetime.Before(from) || !ev.StartDatetime.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *MemEventRepo) FindCoreByNumber(_ context.Context, number string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.sortedByStart() {
		if ev.EventType == event.TypeCore && ev.EventNumber == number {
			return ev, nil
		}
	}
	return nil, core.NewError(core.KindNotFound, "no Core event numbered %s", number)
}

func (r *MemEventRepo) SetScheduled(_ context.Context, refNum int, scheduled bool, condition event.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[refNum]
	if !ok {
		return core.NewError(core.KindNotFound, "event %d not found", refNum)
	}
	ev.IsScheduled = scheduled
	ev.Condition = condition
	return nil
}

func (r *MemEventRepo) sortedByStart() []*event.Event {
	out := make([]*event.Event, 0, len(r.events))
	for _, ev := range r.events {
		cp := *ev
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDatetime.Equal(out[j].StartDatetime) {
			return out[i].StartDatetime.Before(out[j].StartDatetime)
		}
		return out[i].ProjectRefNum < out[j].ProjectRefNum
	})
	return out
}

// -----
// Schedules
// -----

type MemScheduleRepo struct {
	mu        sync.Mutex
	schedules map[core.ID]*schedule.Schedule
}

func NewMemScheduleRepo() *MemScheduleRepo {
	return &MemScheduleRepo{schedules: make(map[core.ID]*schedule.Schedule)}
}

func (r *MemScheduleRepo) Create(_ context.Context, s *schedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.schedules[s.ID] = &cp
	return nil
}

func (r *MemScheduleRepo) GetByID(_ context.Context, id core.ID) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	cp := *s
	return &cp, nil
}

func (r *MemScheduleRepo) GetByEventRef(_ context.Context, refNum int) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.EventRefNum == refNum {
			cp := *s
			return &cp, nil
		}
	}
	return nil, core.NewError(core.KindNotFound, "no schedule for event %d", refNum)
}

func (r *MemScheduleRepo) ListBetween(_ context.Context, from, to time.Time) ([]*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filtered(func(s *schedule.Schedule) bool {
		return !s.ScheduleDatetime.Before(from) && s.ScheduleDatetime.Before(to)
	}), nil
}

func (r *MemScheduleRepo) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filtered(func(s *schedule.Schedule) bool {
		return s.EmployeeID == employeeID && !s.ScheduleDatetime.Before(from) && s.ScheduleDatetime.Before(to)
	}), nil
}

func (r *MemScheduleRepo) ListBySyncStatus(_ context.Context, status schedule.SyncStatus, limit int) ([]*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filtered(func(s *schedule.Schedule) bool { return s.SyncStatus == status })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemScheduleRepo) filtered(keep func(*schedule.Schedule) bool) []*schedule.Schedule {
	var out []*schedule.Schedule
	for _, s := range r.schedules {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduleDatetime.Equal(out[j].ScheduleDatetime) {
			return out[i].ScheduleDatetime.Before(out[j].ScheduleDatetime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MemScheduleRepo) Update(_ context.Context, s *schedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[s.ID]; !ok {
		return core.NewError(core.KindNotFound, "schedule %s not found", s.ID)
	}
	cp := *s
	r.schedules[s.ID] = &cp
	return nil
}

func (r *MemScheduleRepo) Delete(_ context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	delete(r.schedules, id)
	return nil
}

func (r *MemScheduleRepo) MarkSyncPending(_ context.Context, id core.ID) error {
	return r.mark(id, func(s *schedule.Schedule) {
		s.SyncStatus = schedule.SyncPending
		s.APIErrorDetails = ""
	})
}

func (r *MemScheduleRepo) MarkSynced(_ context.Context, id core.ID, upstreamRef string, at time.Time) error {
	return r.mark(id, func(s *schedule.Schedule) {
		s.SyncStatus = schedule.SyncSynced
		s.UpstreamRef = upstreamRef
		s.LastSynced = &at
		s.APIErrorDetails = ""
	})
}

func (r *MemScheduleRepo) MarkSyncFailed(_ context.Context, id core.ID, details string) error {
	return r.mark(id, func(s *schedule.Schedule) {
		s.SyncStatus = schedule.SyncFailed
		s.APIErrorDetails = details
	})
}

func (r *MemScheduleRepo) mark(id core.ID, apply func(*schedule.Schedule)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return core.NewError(core.KindNotFound, "schedule %s not found", id)
	}
	apply(s)
	return nil
}

func (r *MemScheduleRepo) CountBySyncStatus(_ context.Context) (map[schedule.SyncStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[schedule.SyncStatus]int)
	for _, s := range r.schedules {
		out[s.SyncStatus]++
	}
	return out, nil
}

// -----
// Rotations
// -----

type weeklyKey struct {
	rotationType rotation.Type
	weekday      int
}

type exceptionKey struct {
	rotationType rotation.Type
	date         core.Date
}

type MemRotationRepo struct {
	mu         sync.Mutex
	weekly     map[weeklyKey]*rotation.Weekly
	exceptions map[exceptionKey]*rotation.Exception
}

func NewMemRotationRepo() *MemRotationRepo {
	return &MemRotationRepo{
		weekly:     make(map[weeklyKey]*rotation.Weekly),
		exceptions: make(map[exceptionKey]*rotation.Exception),
	}
}

func (r *MemRotationRepo) ListWeekly(_ context.Context) ([]*rotation.Weekly, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*rotation.Weekly, 0, len(r.weekly))
	for _, w := range r.weekly {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RotationType != out[j].RotationType {
			return out[i].RotationType < out[j].RotationType
		}
		return out[i].Weekday < out[j].Weekday
	})
	return out, nil
}

func (r *MemRotationRepo) GetWeekly(_ context.Context, rotationType rotation.Type, weekday int) (*rotation.Weekly, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.weekly[weeklyKey{rotationType, weekday}]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "no %s rotation for weekday %d", rotationType, weekday)
	}
	cp := *w
	return &cp, nil
}

func (r *MemRotationRepo) SetWeekly(_ context.Context, entry *rotation.Weekly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.weekly[weeklyKey{entry.RotationType, entry.Weekday}] = &cp
	return nil
}

func (r *MemRotationRepo) ReplaceWeekly(_ context.Context, entries []*rotation.Weekly) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weekly = make(map[weeklyKey]*rotation.Weekly, len(entries))
	for _, entry := range entries {
		cp := *entry
		r.weekly[weeklyKey{entry.RotationType, entry.Weekday}] = &cp
	}
	return nil
}

func (r *MemRotationRepo) GetException(_ context.Context, rotationType rotation.Type, date core.Date) (*rotation.Exception, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exceptions[exceptionKey{rotationType, date}]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "no %s exception on %s", rotationType, date)
	}
	cp := *ex
	return &cp, nil
}

func (r *MemRotationRepo) ListExceptionsBetween(_ context.Context, from, to core.Date) ([]*rotation.Exception, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*rotation.Exception
	for _, ex := range r.exceptions {
		if ex.Date.Before(from) || ex.Date.After(to) {
			continue
		}
		cp := *ex
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RotationType < out[j].RotationType
	})
	return out, nil
}

func (r *MemRotationRepo) AddException(_ context.Context, exception *rotation.Exception) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *exception
	r.exceptions[exceptionKey{exception.RotationType, exception.Date}] = &cp
	return nil
}

func (r *MemRotationRepo) DeleteException(_ context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ex := range r.exceptions {
		if ex.ID == id {
			delete(r.exceptions, key)
			return nil
		}
	}
	return core.NewError(core.KindNotFound, "exception %s not found", id)
}

// -----
// Runs
// -----

type MemRunRepo struct {
	mu   sync.Mutex
	runs map[core.ID]*scheduler.RunHistory

	// LockErr, when set, fails AcquireRunLock.
	LockErr error
	// FinishErr, when set, fails Finish.
	FinishErr error
}

func NewMemRunRepo() *MemRunRepo {
	return &MemRunRepo{runs: make(map[core.ID]*scheduler.RunHistory)}
}

func (r *MemRunRepo) Create(_ context.Context, run *scheduler.RunHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.runs {
		if existing.State == scheduler.RunStateRunning {
			return core.NewError(core.KindConflict, "a scheduler run is already in progress")
		}
	}
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

func (r *MemRunRepo) AcquireRunLock(_ context.Context) error {
	return r.LockErr
}

func (r *MemRunRepo) GetByID(_ context.Context, id core.ID) (*scheduler.RunHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "run %s not found", id)
	}
	cp := *run
	return &cp, nil
}

func (r *MemRunRepo) List(_ context.Context, limit, offset int) ([]*scheduler.RunHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*scheduler.RunHistory, 0, len(r.runs))
	for _, run := range r.runs {
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemRunRepo) Finish(_ context.Context, run *scheduler.RunHistory) error {
	if r.FinishErr != nil {
		return r.FinishErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return core.NewError(core.KindNotFound, "run %s not found", run.ID)
	}
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

// -----
// Proposals
// -----

type MemProposalRepo struct {
	mu        sync.Mutex
	proposals map[core.ID]*scheduler.PendingSchedule
	order     []core.ID

	// CreateErr, when set, fails CreateBatch.
	CreateErr error
}

func NewMemProposalRepo() *MemProposalRepo {
	return &MemProposalRepo{proposals: make(map[core.ID]*scheduler.PendingSchedule)}
}

func (r *MemProposalRepo) CreateBatch(_ context.Context, proposals []*scheduler.PendingSchedule) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range proposals {
		cp := *p
		r.proposals[p.ID] = &cp
		r.order = append(r.order, p.ID)
	}
	return nil
}

func (r *MemProposalRepo) GetByID(_ context.Context, id core.ID) (*scheduler.PendingSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, core.NewError(core.KindNotFound, "proposal %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *MemProposalRepo) ListByRun(_ context.Context, runID core.ID) ([]*scheduler.PendingSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*scheduler.PendingSchedule
	for _, id := range r.order {
		p := r.proposals[id]
		if p.RunID != runID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemProposalRepo) UpdateAssignment(_ context.Context, id core.ID, employeeID string, datetime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return core.NewError(core.KindNotFound, "proposal %s not found", id)
	}
	p.EmployeeID = &employeeID
	p.ScheduleDatetime = &datetime
	p.Status = scheduler.StatusEdited
	return nil
}

func (r *MemProposalRepo) UpdateStatus(_ context.Context, id core.ID, status scheduler.ProposalStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return core.NewError(core.KindNotFound, "proposal %s not found", id)
	}
	p.Status = status
	if reason != "" {
		p.FailureReason = reason
	}
	return nil
}

func (r *MemProposalRepo) UpdateStatusByRun(_ context.Context, runID core.ID, from []scheduler.ProposalStatus, to scheduler.ProposalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proposals {
		if p.RunID != runID {
			continue
		}
		for _, f := range from {
			if p.Status == f {
				p.Status = to
				break
			}
		}
	}
	return nil
}

// -----
// Audit
// -----

type MemAuditRepo struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func NewMemAuditRepo() *MemAuditRepo {
	return &MemAuditRepo{}
}

func (r *MemAuditRepo) Append(_ context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *MemAuditRepo) List(_ context.Context, filter *audit.Filter, limit, offset int) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter != nil {
			if filter.EntityType != "" && e.EntityType != filter.EntityType {
				continue
			}
			if filter.EntityID != "" && e.EntityID != filter.EntityID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
		}
		cp := *e
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of everything appended so far.
func (r *MemAuditRepo) Entries() []*audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*audit.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}
