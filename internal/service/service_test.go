package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hos-service/internal/model"
	"hos-service/internal/rules"
	"hos-service/internal/service"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fakeLogStore struct {
	logs map[uuid.UUID]*model.DutyStatusLog
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{logs: make(map[uuid.UUID]*model.DutyStatusLog)}
}

func (s *fakeLogStore) byDriver(driverID uuid.UUID) []model.DutyStatusLog {
	var out []model.DutyStatusLog
	for _, l := range s.logs {
		if l.DriverID == driverID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *fakeLogStore) GetOpenLog(_ context.Context, driverID uuid.UUID) (*model.DutyStatusLog, error) {
	for _, l := range s.logs {
		if l.DriverID == driverID && l.EndTime == nil {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeLogStore) GetLogsInRange(_ context.Context, driverID uuid.UUID, from, to *time.Time) ([]model.DutyStatusLog, error) {
	var out []model.DutyStatusLog
	for _, l := range s.byDriver(driverID) {
		if from != nil && l.StartTime.Before(*from) {
			continue
		}
		if to != nil && !l.StartTime.Before(*to) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *fakeLogStore) GetRecentLogs(_ context.Context, driverID uuid.UUID, days int) ([]model.DutyStatusLog, error) {
	return s.byDriver(driverID), nil
}

func (s *fakeLogStore) GetByID(_ context.Context, id uuid.UUID) (*model.DutyStatusLog, error) {
	l, ok := s.logs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLogStore) Save(_ context.Context, entry *model.DutyStatusLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	s.logs[entry.ID] = &cp
	return nil
}

func (s *fakeLogStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.logs, id)
	return nil
}

type fakeViolationStore struct {
	violations map[uuid.UUID]*model.HOSViolation
}

func newFakeViolationStore() *fakeViolationStore {
	return &fakeViolationStore{violations: make(map[uuid.UUID]*model.HOSViolation)}
}

func (s *fakeViolationStore) GetUnresolved(_ context.Context, driverID uuid.UUID) ([]model.HOSViolation, error) {
	var out []model.HOSViolation
	for _, v := range s.violations {
		if v.DriverID == driverID && !v.IsResolved {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeViolationStore) List(_ context.Context, driverID uuid.UUID, resolved *bool) ([]model.HOSViolation, error) {
	var out []model.HOSViolation
	for _, v := range s.violations {
		if v.DriverID != driverID {
			continue
		}
		if resolved != nil && v.IsResolved != *resolved {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *fakeViolationStore) GetByID(_ context.Context, id uuid.UUID) (*model.HOSViolation, error) {
	v, ok := s.violations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *fakeViolationStore) Save(_ context.Context, violation *model.HOSViolation) error {
	if violation.ID == uuid.Nil {
		violation.ID = uuid.New()
	}
	cp := *violation
	s.violations[violation.ID] = &cp
	return nil
}

type fakePublisher struct {
	published []model.HOSViolation
}

func (p *fakePublisher) PublishViolation(_ context.Context, v model.HOSViolation) error {
	p.published = append(p.published, v)
	return nil
}

type testEnv struct {
	ctx        context.Context
	logs       *fakeLogStore
	violations *fakeViolationStore
	publisher  *fakePublisher
	logSvc     *service.LogService
	violSvc    *service.ViolationService
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:        context.Background(),
		logs:       newFakeLogStore(),
		violations: newFakeViolationStore(),
		publisher:  &fakePublisher{},
		now:        base,
	}
	engine := rules.NewEngine(rules.Cycle60Hour7Day)
	env.violSvc = service.NewViolationService(env.logs, env.violations, engine, env.publisher, zerolog.Nop())
	env.logSvc = service.NewLogService(env.logs, env.violSvc, engine, zerolog.Nop())
	clock := func() time.Time { return env.now }
	env.logSvc.Now = clock
	env.violSvc.Now = clock
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) openCount(driverID uuid.UUID) int {
	count := 0
	for _, l := range e.logs.byDriver(driverID) {
		if l.EndTime == nil {
			count++
		}
	}
	return count
}

func TestStartLogConflict(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	if _, err := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving}); err != nil {
		t.Fatalf("first start: %v", err)
	}

	_, err := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusOffDuty})
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("second start: got %v, want conflict", err)
	}
	if !strings.Contains(err.Error(), string(model.DutyStatusDriving)) {
		t.Errorf("conflict error should name the blocking status: %v", err)
	}
}

func TestStartLogRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.logSvc.StartLog(env.ctx, uuid.New(), service.StartLogInput{Status: "NAPPING"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestCompleteWithoutOpenLog(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.logSvc.CompleteLog(env.ctx, uuid.New(), "")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestCompleteClosesAndKeepsNotes(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	if _, err := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusOnDutyNotDriving}); err != nil {
		t.Fatal(err)
	}
	env.advance(2 * time.Hour)

	entry, err := env.logSvc.CompleteLog(env.ctx, driverID, "pre-trip inspection")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if entry.EndTime == nil || !entry.EndTime.Equal(env.now) {
		t.Errorf("end time = %v, want %v", entry.EndTime, env.now)
	}
	if entry.DurationMinutes() != 120 {
		t.Errorf("duration = %v minutes, want 120", entry.DurationMinutes())
	}
	if entry.Notes != "pre-trip inspection" {
		t.Errorf("notes = %q", entry.Notes)
	}
	if env.openCount(driverID) != 0 {
		t.Error("log should be closed")
	}
}

func TestChangeStatusNeverLeavesTwoOpenLogs(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	statuses := []model.DutyStatus{
		model.DutyStatusOnDutyNotDriving,
		model.DutyStatusDriving,
		model.DutyStatusOffDuty,
		model.DutyStatusSleeperBerth,
		model.DutyStatusDriving,
	}
	for _, status := range statuses {
		if _, err := env.logSvc.ChangeStatus(env.ctx, driverID, service.StartLogInput{Status: status}); err != nil {
			t.Fatalf("change to %s: %v", status, err)
		}
		if got := env.openCount(driverID); got != 1 {
			t.Fatalf("open logs after change to %s = %d, want 1", status, got)
		}
		env.advance(time.Hour)
	}
}

func TestChangeStatusWorksWithNoOpenLog(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	entry, err := env.logSvc.ChangeStatus(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving})
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if entry.Status != model.DutyStatusDriving || !entry.IsOpen() {
		t.Errorf("unexpected log %+v", entry)
	}
}

func TestEditRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	entry, _ := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving})

	_, err := env.logSvc.EditLog(env.ctx, entry.ID, service.EditLogInput{})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestEditSetsAuditFields(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	entry, _ := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving})
	env.advance(time.Hour)

	newStart := base.Add(15 * time.Minute)
	edited, err := env.logSvc.EditLog(env.ctx, entry.ID, service.EditLogInput{
		Reason:    "forgot to log the fuel stop",
		StartTime: &newStart,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.IsEdited || edited.EditedAt == nil || edited.EditReason == "" {
		t.Errorf("edit audit fields not set: %+v", edited)
	}
	if !edited.StartTime.Equal(newStart) {
		t.Errorf("start time = %v, want %v", edited.StartTime, newStart)
	}
}

func TestEditRejectsInvertedTimes(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	entry, _ := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving})

	badEnd := base.Add(-time.Hour)
	_, err := env.logSvc.EditLog(env.ctx, entry.ID, service.EditLogInput{Reason: "oops", EndTime: &badEnd})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestCertifiedLogIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	if _, err := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusOnDutyNotDriving}); err != nil {
		t.Fatal(err)
	}
	env.advance(time.Hour)
	entry, err := env.logSvc.CompleteLog(env.ctx, driverID, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.logSvc.CertifyDay(env.ctx, driverID, env.now); err != nil {
		t.Fatalf("certify: %v", err)
	}

	_, err = env.logSvc.EditLog(env.ctx, entry.ID, service.EditLogInput{Reason: "tweak"})
	if !errors.Is(err, service.ErrCertified) {
		t.Fatalf("edit after certify: got %v, want certified error", err)
	}

	err = env.logSvc.DeleteLog(env.ctx, entry.ID)
	if !errors.Is(err, service.ErrCertified) {
		t.Fatalf("delete after certify: got %v, want certified error", err)
	}

	// Certifying again is a no-op, never an error.
	if err := env.logSvc.CertifyDay(env.ctx, driverID, env.now); err != nil {
		t.Fatalf("re-certify: %v", err)
	}
}

func TestDeleteLog(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	entry, _ := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusOffDuty})
	if err := env.logSvc.DeleteLog(env.ctx, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.logSvc.DeleteLog(env.ctx, entry.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("second delete: got %v, want not found", err)
	}
}

func TestCompleteRecordsViolations(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	if _, err := env.logSvc.StartLog(env.ctx, driverID, service.StartLogInput{Status: model.DutyStatusDriving}); err != nil {
		t.Fatal(err)
	}
	env.advance(12 * time.Hour)

	if _, err := env.logSvc.CompleteLog(env.ctx, driverID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	unresolved, _ := env.violations.GetUnresolved(env.ctx, driverID)
	found := false
	for _, v := range unresolved {
		if v.Type == model.ViolationTypeDrivingLimit11Hour {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a recorded driving-limit violation, got %+v", unresolved)
	}
	if len(env.publisher.published) == 0 {
		t.Error("expected violation alerts to be published")
	}
}

func TestCheckAndRecordDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	end := base.Add(12 * time.Hour)
	seed := &model.DutyStatusLog{
		DriverID:  driverID,
		Status:    model.DutyStatusDriving,
		StartTime: base,
		EndTime:   &end,
	}
	if err := env.logs.Save(env.ctx, seed); err != nil {
		t.Fatal(err)
	}
	env.now = end

	first, err := env.violSvc.CheckAndRecord(env.ctx, driverID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected violations on first check")
	}

	second, err := env.violSvc.CheckAndRecord(env.ctx, driverID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second check recorded %d violations, want 0", len(second))
	}
}

func TestResolvedViolationIsRecordedAgain(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	end := base.Add(12 * time.Hour)
	seed := &model.DutyStatusLog{
		DriverID:  driverID,
		Status:    model.DutyStatusDriving,
		StartTime: base,
		EndTime:   &end,
	}
	if err := env.logs.Save(env.ctx, seed); err != nil {
		t.Fatal(err)
	}
	env.now = end

	first, err := env.violSvc.CheckAndRecord(env.ctx, driverID)
	if err != nil || len(first) == 0 {
		t.Fatalf("first check: %v (%d)", err, len(first))
	}
	for _, v := range first {
		if _, err := env.violSvc.Resolve(env.ctx, v.ID, "coached the driver"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	// With every counterpart resolved the breach is detected anew.
	again, err := env.violSvc.CheckAndRecord(env.ctx, driverID)
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if len(again) != len(first) {
		t.Fatalf("re-check recorded %d violations, want %d", len(again), len(first))
	}
}

func TestResolveRequiresNotes(t *testing.T) {
	env := newTestEnv(t)

	violation := &model.HOSViolation{
		DriverID:          uuid.New(),
		Type:              model.ViolationTypeBreakAfter8Hours,
		Severity:          model.ViolationSeverityModerate,
		ViolationDateTime: base,
	}
	if err := env.violations.Save(env.ctx, violation); err != nil {
		t.Fatal(err)
	}

	if _, err := env.violSvc.Resolve(env.ctx, violation.ID, "  "); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestResolveIsOneWay(t *testing.T) {
	env := newTestEnv(t)

	violation := &model.HOSViolation{
		DriverID:          uuid.New(),
		Type:              model.ViolationTypeBreakAfter8Hours,
		Severity:          model.ViolationSeverityModerate,
		ViolationDateTime: base,
	}
	if err := env.violations.Save(env.ctx, violation); err != nil {
		t.Fatal(err)
	}

	resolved, err := env.violSvc.Resolve(env.ctx, violation.ID, "driver took the break late")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolvedAt == nil || resolved.ResolutionNotes == "" {
		t.Errorf("resolution fields not set: %+v", resolved)
	}

	if _, err := env.violSvc.Resolve(env.ctx, violation.ID, "again"); !errors.Is(err, service.ErrAlreadyResolved) {
		t.Fatalf("second resolve: got %v, want already resolved", err)
	}
}

func TestResolveNotFound(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.violSvc.Resolve(env.ctx, uuid.New(), "notes"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestBuildLogSheetGroupsByDay(t *testing.T) {
	env := newTestEnv(t)
	driverID := uuid.New()

	day1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	save := func(status model.DutyStatus, start time.Time, d time.Duration) {
		end := start.Add(d)
		if err := env.logs.Save(env.ctx, &model.DutyStatusLog{
			DriverID:  driverID,
			Status:    status,
			StartTime: start,
			EndTime:   &end,
		}); err != nil {
			t.Fatal(err)
		}
	}
	save(model.DutyStatusDriving, day1.Add(8*time.Hour), 4*time.Hour)
	save(model.DutyStatusOnDutyNotDriving, day1.Add(12*time.Hour), 2*time.Hour)
	save(model.DutyStatusOffDuty, day1.Add(14*time.Hour), 10*time.Hour)
	save(model.DutyStatusDriving, day2.Add(8*time.Hour), 5*time.Hour)

	sheet, err := env.logSvc.BuildLogSheet(env.ctx, driverID, "Avery Miles", day1, day2.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("build sheet: %v", err)
	}
	if len(sheet.Days) != 2 {
		t.Fatalf("days = %d, want 2", len(sheet.Days))
	}

	first := sheet.Days[0]
	if first.DrivingMinutes != 240 || first.OnDutyMinutes != 360 || first.RestMinutes != 600 {
		t.Errorf("day 1 totals = %v/%v/%v, want 240/360/600", first.DrivingMinutes, first.OnDutyMinutes, first.RestMinutes)
	}
	if first.Certified {
		t.Error("uncertified logs should leave the day uncertified")
	}
	if sheet.Days[1].DrivingMinutes != 300 {
		t.Errorf("day 2 driving = %v, want 300", sheet.Days[1].DrivingMinutes)
	}
}

func TestBuildLogSheetRejectsEmptyPeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.logSvc.BuildLogSheet(env.ctx, uuid.New(), "", base, base)
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}
