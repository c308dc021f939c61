package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/internal/holds/events"
	"brokerage/internal/holds/policy"
	"brokerage/internal/holds/repository"
	"brokerage/internal/holds/validator"
	"brokerage/pkg/clock"
	"brokerage/pkg/config"
	apperrors "brokerage/pkg/errors"
	"brokerage/pkg/logger"
	"brokerage/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.HoldEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.HoldEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc        HoldService
	holds      *repository.MemoryHoldRepository
	configs    *repository.MemoryConfigRepository
	properties *repository.MemoryProperties
	publisher  *recordingPublisher
	clock      *clock.Manual
	cfg        *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                        logger.Nop(),
		HoldDurationHours:          24,
		HoldMaxExtends:             2,
		HoldExtendBeforeHours:      1,
		HoldMaxCustomDurationHours: 168,
		HoldSweepBatchSize:         2,
		ReadTimeout:                time.Second,
		WriteTimeout:               time.Second,
	}
}

func newFixture(t *testing.T, holds repository.HoldRepository) *fixture {
	t.Helper()
	f := &fixture{
		holds:      repository.NewMemoryHoldRepository(),
		configs:    repository.NewMemoryConfigRepository(),
		properties: repository.NewMemoryProperties(),
		publisher:  &recordingPublisher{},
		clock:      clock.NewManual(t0),
		cfg:        testConfig(),
	}
	if holds == nil {
		holds = f.holds
	}
	for i := 1; i <= 5; i++ {
		f.properties.Set(fmt.Sprintf("prop-%d", i), model.PropertyStatusAvailable)
	}
	f.svc = NewHoldService(holds, f.configs, f.properties, f.publisher, validator.NewHoldValidator(), f.clock, f.cfg)
	return f
}

func (f *fixture) create(t *testing.T, propertyID, ctvID string) *model.PropertyHold {
	t.Helper()
	hold, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: propertyID, CtvID: ctvID})
	require.NoError(t, err)
	return hold
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, code), "expected code %s, got %v", code, err)
	assert.Equal(t, status, apperrors.AsAppError(err).HTTPStatus)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestCreateHold(t *testing.T) {
	f := newFixture(t, nil)

	hold, err := f.svc.CreateHold(context.Background(), CreateHoldInput{
		PropertyID: "  prop-1 ",
		CtvID:      "ctv-1",
		Reason:     strPtr("  client   viewing  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "prop-1", hold.PropertyID)
	assert.Equal(t, model.HoldStatusActive, hold.Status)
	assert.Equal(t, t0.Add(24*time.Hour), hold.HoldUntil)
	assert.Equal(t, 0, hold.ExtendCount)
	require.NotNil(t, hold.Reason)
	assert.Equal(t, "client viewing", *hold.Reason)
	assert.Equal(t, []events.EventType{events.EventHoldCreated}, f.publisher.types())
}

func TestCreateHold_CustomDuration(t *testing.T) {
	f := newFixture(t, nil)

	hold, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: "ctv-1", CustomDurationHours: intPtr(48)})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), hold.HoldUntil)

	_, err = f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-2", CtvID: "ctv-1", CustomDurationHours: intPtr(500)})
	requireCode(t, err, CodeInvalidDuration, http.StatusUnprocessableEntity)
	assert.True(t, errors.Is(err, holdserrors.ErrInvalidDuration))
}

func TestNonPositiveDuration_IsInvalidDuration(t *testing.T) {
	for _, hours := range []int{0, -5} {
		t.Run(fmt.Sprintf("create %dh", hours), func(t *testing.T) {
			f := newFixture(t, nil)

			_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: "ctv-1", CustomDurationHours: intPtr(hours)})
			requireCode(t, err, CodeInvalidDuration, http.StatusUnprocessableEntity)
			assert.True(t, errors.Is(err, holdserrors.ErrInvalidDuration))
		})

		t.Run(fmt.Sprintf("extend %dh", hours), func(t *testing.T) {
			f := newFixture(t, nil)
			hold := f.create(t, "prop-1", "ctv-1")
			f.clock.Advance(23*time.Hour + 30*time.Minute)

			_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1", CustomDurationHours: intPtr(hours)})
			requireCode(t, err, CodeInvalidDuration, http.StatusUnprocessableEntity)
			assert.True(t, errors.Is(err, holdserrors.ErrInvalidDuration))

			stored, err := f.svc.GetHold(context.Background(), hold.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, stored.ExtendCount)
			assert.Equal(t, hold.HoldUntil, stored.HoldUntil)
		})
	}
}

func TestCreateHold_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "", CtvID: "ctv-1"})
	requireCode(t, err, apperrors.CodeValidation, http.StatusUnprocessableEntity)

	_, err = f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: " "})
	requireCode(t, err, apperrors.CodeInvalidInput, http.StatusBadRequest)
}

func TestCreateHold_NotHoldable(t *testing.T) {
	f := newFixture(t, nil)
	f.properties.Set("sold", model.PropertyStatusSold)
	f.properties.Set("deposited", model.PropertyStatusDeposited)

	for _, id := range []string{"sold", "deposited", "unknown"} {
		_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: id, CtvID: "ctv-1"})
		requireCode(t, err, CodeNotHoldable, http.StatusConflict)
		assert.True(t, errors.Is(err, holdserrors.ErrNotHoldable), id)
	}
	assert.Empty(t, f.publisher.types())
}

func TestCreateHold_AlreadyHeld(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "prop-1", "ctv-1")

	_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: "ctv-2"})
	requireCode(t, err, CodeAlreadyHeld, http.StatusConflict)
	assert.True(t, errors.Is(err, holdserrors.ErrAlreadyHeld))

	// The same collaborator cannot stack a second hold either.
	_, err = f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: "ctv-1"})
	requireCode(t, err, CodeAlreadyHeld, http.StatusConflict)
}

func TestCreateHold_PastDueButNotSweptStillBlocks(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "prop-1", "ctv-1")
	f.clock.Advance(25 * time.Hour)

	_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: "ctv-2"})
	requireCode(t, err, CodeAlreadyHeld, http.StatusConflict)

	_, err = f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)

	hold := f.create(t, "prop-1", "ctv-2")
	assert.Equal(t, "ctv-2", hold.CtvID)
}

func TestCreateHold_ConcurrentCreatesExactlyOneWins(t *testing.T) {
	f := newFixture(t, nil)

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, alreadyHeld int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CreateHold(context.Background(), CreateHoldInput{PropertyID: "prop-1", CtvID: fmt.Sprintf("ctv-%d", i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, holdserrors.ErrAlreadyHeld):
				alreadyHeld++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, alreadyHeld)

	active, err := f.holds.Count(context.Background(), model.HoldFilter{PropertyID: "prop-1", Status: model.HoldStatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)
}

func TestExtendHold_Scenarios(t *testing.T) {
	t.Run("too early", func(t *testing.T) {
		f := newFixture(t, nil)
		hold := f.create(t, "prop-1", "ctv-1")

		f.clock.Advance(10 * time.Hour)
		_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
		requireCode(t, err, CodeExtendNotAllowed, http.StatusConflict)
	})

	t.Run("inside window", func(t *testing.T) {
		f := newFixture(t, nil)
		hold := f.create(t, "prop-1", "ctv-1")

		now := f.clock.Advance(23*time.Hour + 30*time.Minute)
		extended, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
		require.NoError(t, err)
		assert.Equal(t, 1, extended.ExtendCount)
		assert.Equal(t, now.Add(24*time.Hour), extended.HoldUntil)
		assert.Equal(t, []events.EventType{events.EventHoldCreated, events.EventHoldExtended}, f.publisher.types())
	})

	t.Run("after expiry", func(t *testing.T) {
		f := newFixture(t, nil)
		hold := f.create(t, "prop-1", "ctv-1")

		f.clock.Advance(24 * time.Hour)
		_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
		requireCode(t, err, CodeNotActive, http.StatusConflict)
	})
}

func TestExtendHold_RespectsMaxExtends(t *testing.T) {
	f := newFixture(t, nil)
	hold := f.create(t, "prop-1", "ctv-1")

	for i := 1; i <= f.cfg.HoldMaxExtends; i++ {
		f.clock.Advance(23*time.Hour + 30*time.Minute)
		extended, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
		require.NoError(t, err)
		assert.Equal(t, i, extended.ExtendCount)
	}

	f.clock.Advance(23*time.Hour + 30*time.Minute)
	_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
	requireCode(t, err, CodeExtendNotAllowed, http.StatusConflict)

	stored, err := f.svc.GetHold(context.Background(), hold.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, stored.ExtendCount, f.cfg.HoldMaxExtends)
}

func TestExtendHold_ConcurrentExtendsApplyOnce(t *testing.T) {
	f := newFixture(t, nil)
	hold := f.create(t, "prop-1", "ctv-1")
	f.clock.Advance(23*time.Hour + 30*time.Minute)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	stored, err := f.svc.GetHold(context.Background(), hold.ID)
	require.NoError(t, err)
	assert.Equal(t, succeeded, stored.ExtendCount)
	assert.LessOrEqual(t, stored.ExtendCount, f.cfg.HoldMaxExtends)
}

func TestExtendHold_Forbidden(t *testing.T) {
	f := newFixture(t, nil)
	hold := f.create(t, "prop-1", "ctv-1")
	f.clock.Advance(23*time.Hour + 30*time.Minute)

	_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-2"})
	requireCode(t, err, apperrors.CodeForbidden, http.StatusForbidden)

	_, err = f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "admin-1", IsAdmin: true})
	require.NoError(t, err)
}

func TestExtendHold_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: "5f0c6d7e-8d4f-4c57-9b8a-0d1c2e3f4a5b", RequestedBy: "ctv-1"})
	requireCode(t, err, apperrors.CodeNotFound, http.StatusNotFound)
	assert.True(t, errors.Is(err, holdserrors.ErrNotFound))

	_, err = f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: "not-a-uuid", RequestedBy: "ctv-1"})
	requireCode(t, err, apperrors.CodeInvalidInput, http.StatusBadRequest)
}

// conflictingRepo makes the first n guarded writes lose their race.
type conflictingRepo struct {
	*repository.MemoryHoldRepository
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (r *conflictingRepo) lose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.conflicts > 0 {
		r.conflicts--
		return true
	}
	return false
}

func (r *conflictingRepo) Extend(ctx context.Context, id string, seen int, holdUntil, now time.Time) (*model.PropertyHold, error) {
	if r.lose() {
		return nil, holdserrors.ErrStorageConflict
	}
	return r.MemoryHoldRepository.Extend(ctx, id, seen, holdUntil, now)
}

func (r *conflictingRepo) Transition(ctx context.Context, id string, tr repository.Transition) (*model.PropertyHold, error) {
	if r.lose() {
		return nil, holdserrors.ErrStorageConflict
	}
	return r.MemoryHoldRepository.Transition(ctx, id, tr)
}

func TestStorageConflict_RetriedOnce(t *testing.T) {
	repo := &conflictingRepo{MemoryHoldRepository: repository.NewMemoryHoldRepository(), conflicts: 1}
	f := newFixture(t, repo)
	hold := f.create(t, "prop-1", "ctv-1")
	f.clock.Advance(23*time.Hour + 30*time.Minute)

	extended, err := f.svc.ExtendHold(context.Background(), ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, extended.ExtendCount)
	assert.Equal(t, 2, repo.calls)
}

func TestStorageConflict_SurfacedAfterRetry(t *testing.T) {
	repo := &conflictingRepo{MemoryHoldRepository: repository.NewMemoryHoldRepository(), conflicts: 2}
	f := newFixture(t, repo)
	hold := f.create(t, "prop-1", "ctv-1")

	_, err := f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: hold.ID, CancelledBy: "ctv-1"})
	requireCode(t, err, CodeStorageConflict, http.StatusConflict)
	assert.True(t, errors.Is(err, holdserrors.ErrStorageConflict))
	assert.Equal(t, 2, repo.calls)

	stored, err := f.svc.GetHold(context.Background(), hold.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusActive, stored.Status)
}

func TestCancelHold(t *testing.T) {
	f := newFixture(t, nil)
	own := f.create(t, "prop-1", "ctv-1")
	other := f.create(t, "prop-2", "ctv-2")

	_, err := f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: other.ID, CancelledBy: "ctv-1"})
	requireCode(t, err, apperrors.CodeForbidden, http.StatusForbidden)

	cancelled, err := f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: own.ID, CancelledBy: "ctv-1", Reason: strPtr("client declined")})
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, "ctv-1", *cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancelledReason)
	assert.Equal(t, "client declined", *cancelled.CancelledReason)

	byAdmin, err := f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: other.ID, CancelledBy: "admin-1", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusCancelledByAdmin, byAdmin.Status)

	_, err = f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: own.ID, CancelledBy: "ctv-1"})
	requireCode(t, err, CodeNotActive, http.StatusConflict)

	// The property is free again once its hold is cancelled.
	f.create(t, "prop-1", "ctv-3")
}

func TestAutoCancel(t *testing.T) {
	f := newFixture(t, nil)
	hold := f.create(t, "prop-1", "ctv-1")

	_, err := f.svc.AutoCancel(context.Background(), AutoCancelInput{HoldID: hold.ID})
	requireCode(t, err, apperrors.CodeValidation, http.StatusUnprocessableEntity)

	cancelled, err := f.svc.AutoCancel(context.Background(), AutoCancelInput{HoldID: hold.ID, Reason: "property sold"})
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusAutoCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, SystemActor, *cancelled.CancelledBy)

	_, err = f.svc.AutoCancel(context.Background(), AutoCancelInput{HoldID: hold.ID, Reason: "again"})
	requireCode(t, err, CodeNotActive, http.StatusConflict)
}

func TestAutoCancelByProperty(t *testing.T) {
	f := newFixture(t, nil)
	hold := f.create(t, "prop-1", "ctv-1")

	cancelled, err := f.svc.AutoCancelByProperty(context.Background(), "prop-1", "listing removed", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, hold.ID, cancelled.ID)
	assert.Equal(t, model.HoldStatusAutoCancelled, cancelled.Status)

	_, err = f.svc.AutoCancelByProperty(context.Background(), "prop-1", "listing removed", "admin-1")
	requireCode(t, err, apperrors.CodeNotFound, http.StatusNotFound)
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cancelled := f.create(t, "prop-1", "ctv-1")
	_, err := f.svc.CancelHold(ctx, CancelHoldInput{HoldID: cancelled.ID, CancelledBy: "ctv-1"})
	require.NoError(t, err)

	autoCancelled := f.create(t, "prop-2", "ctv-1")
	_, err = f.svc.AutoCancel(ctx, AutoCancelInput{HoldID: autoCancelled.ID, Reason: "sold"})
	require.NoError(t, err)

	expired := f.create(t, "prop-3", "ctv-1")
	f.clock.Advance(24*time.Hour + 30*time.Minute)
	_, err = f.svc.ExpireSweep(ctx, f.clock.Now())
	require.NoError(t, err)

	for _, id := range []string{cancelled.ID, autoCancelled.ID, expired.ID} {
		before, err := f.svc.GetHold(ctx, id)
		require.NoError(t, err)
		require.True(t, before.Status.IsTerminal())

		_, err = f.svc.ExtendHold(ctx, ExtendHoldInput{HoldID: id, RequestedBy: "ctv-1"})
		assert.True(t, errors.Is(err, holdserrors.ErrNotActive), "extend %s: %v", before.Status, err)
		_, err = f.svc.CancelHold(ctx, CancelHoldInput{HoldID: id, CancelledBy: "ctv-1"})
		assert.True(t, errors.Is(err, holdserrors.ErrNotActive), "cancel %s: %v", before.Status, err)
		_, err = f.svc.AutoCancel(ctx, AutoCancelInput{HoldID: id, Reason: "again"})
		assert.True(t, errors.Is(err, holdserrors.ErrNotActive), "auto-cancel %s: %v", before.Status, err)

		after, err := f.svc.GetHold(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}

func TestTerminalHold_NotActiveBeforeOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	hold := f.create(t, "prop-1", "ctv-1")
	_, err := f.svc.CancelHold(ctx, CancelHoldInput{HoldID: hold.ID, CancelledBy: "ctv-1"})
	require.NoError(t, err)

	_, err = f.svc.ExtendHold(ctx, ExtendHoldInput{HoldID: hold.ID, RequestedBy: "ctv-2"})
	requireCode(t, err, CodeNotActive, http.StatusConflict)
	_, err = f.svc.CancelHold(ctx, CancelHoldInput{HoldID: hold.ID, CancelledBy: "ctv-2"})
	requireCode(t, err, CodeNotActive, http.StatusConflict)
}

func TestExpireSweep(t *testing.T) {
	f := newFixture(t, nil)
	for i := 1; i <= 5; i++ {
		f.create(t, fmt.Sprintf("prop-%d", i), "ctv-1")
	}

	f.clock.Advance(10 * time.Hour)
	res, err := f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Expired)

	f.clock.Advance(14 * time.Hour)
	res, err = f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Expired)
	assert.Empty(t, res.Failed)

	res, err = f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Failed: []SweepFailure{}}, res)

	expired, err := f.holds.Count(context.Background(), model.HoldFilter{Status: model.HoldStatusExpired})
	require.NoError(t, err)
	assert.EqualValues(t, 5, expired)

	n := 0
	for _, typ := range f.publisher.types() {
		if typ == events.EventHoldExpired {
			n++
		}
	}
	assert.Equal(t, 5, n)
}

// extendingRepo extends a listed hold between FindExpired and the guarded
// transition, the way a concurrent request would.
type extendingRepo struct {
	*repository.MemoryHoldRepository
	once sync.Once
	at   time.Time
}

func (r *extendingRepo) FindExpired(ctx context.Context, now time.Time, afterID string, limit int) ([]*model.PropertyHold, error) {
	page, err := r.MemoryHoldRepository.FindExpired(ctx, now, afterID, limit)
	if err == nil && len(page) > 0 {
		r.once.Do(func() {
			_, _ = r.MemoryHoldRepository.Extend(ctx, page[0].ID, page[0].ExtendCount, now.Add(24*time.Hour), r.at)
		})
	}
	return page, err
}

func TestExpireSweep_SkipsHoldChangedAfterListing(t *testing.T) {
	repo := &extendingRepo{MemoryHoldRepository: repository.NewMemoryHoldRepository(), at: t0}
	f := newFixture(t, repo)
	f.create(t, "prop-1", "ctv-1")
	f.create(t, "prop-2", "ctv-1")

	f.clock.Advance(25 * time.Hour)
	res, err := f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Skipped)

	active, err := repo.Count(context.Background(), model.HoldFilter{Status: model.HoldStatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)
}

// failingRepo fails the guarded transition of one hold with a storage error.
type failingRepo struct {
	*repository.MemoryHoldRepository
	failID string
}

func (r *failingRepo) Transition(ctx context.Context, id string, tr repository.Transition) (*model.PropertyHold, error) {
	if id == r.failID {
		return nil, errors.New("write timeout")
	}
	return r.MemoryHoldRepository.Transition(ctx, id, tr)
}

func TestExpireSweep_RecordFailureDoesNotAbortSweep(t *testing.T) {
	repo := &failingRepo{MemoryHoldRepository: repository.NewMemoryHoldRepository()}
	f := newFixture(t, repo)
	ids := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		ids = append(ids, f.create(t, fmt.Sprintf("prop-%d", i), "ctv-1").ID)
	}
	repo.failID = ids[1]

	f.clock.Advance(25 * time.Hour)
	res, err := f.svc.ExpireSweep(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Expired)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, repo.failID, res.Failed[0].HoldID)
	assert.Contains(t, res.Failed[0].Error, "write timeout")

	for _, id := range ids {
		stored, err := f.svc.GetHold(context.Background(), id)
		require.NoError(t, err)
		if id == repo.failID {
			assert.Equal(t, model.HoldStatusActive, stored.Status)
			continue
		}
		assert.Equal(t, model.HoldStatusExpired, stored.Status)
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")

	hold := f.create(t, "prop-1", "ctv-1")
	cancelled, err := f.svc.CancelHold(context.Background(), CancelHoldInput{HoldID: hold.ID, CancelledBy: "ctv-1"})
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusCancelled, cancelled.Status)
}

func TestCheckHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: "ctv-2"})
	require.NoError(t, err)
	assert.Equal(t, &model.CheckPropertyHoldResponse{IsHeld: false, CanIHold: true}, resp)

	hold := f.create(t, "prop-1", "ctv-1")

	resp, err = f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: "ctv-1"})
	require.NoError(t, err)
	assert.True(t, resp.IsHeld)
	assert.True(t, resp.CanIHold)
	require.NotNil(t, resp.HoldBy)
	assert.Equal(t, "ctv-1", *resp.HoldBy)
	require.NotNil(t, resp.MyActiveHold)
	assert.Equal(t, hold.ID, resp.MyActiveHold.ID)

	resp, err = f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: "ctv-2"})
	require.NoError(t, err)
	assert.True(t, resp.IsHeld)
	assert.False(t, resp.CanIHold)
	assert.Nil(t, resp.HoldBy)
	assert.Nil(t, resp.MyActiveHold)
	require.NotNil(t, resp.HoldUntil)
	assert.Equal(t, hold.HoldUntil, *resp.HoldUntil)

	resp, err = f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: "admin-1", RevealHolder: true})
	require.NoError(t, err)
	require.NotNil(t, resp.HoldBy)
	assert.Equal(t, "ctv-1", *resp.HoldBy)
	assert.Nil(t, resp.MyActiveHold)
}

func TestCheckHold_OnlyTheSweepExpires(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	hold := f.create(t, "prop-1", "ctv-1")

	now := f.clock.Advance(25 * time.Hour)

	// Past holdUntil but not yet swept: still held, and reading changes nothing.
	resp, err := f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: "ctv-2"})
	require.NoError(t, err)
	assert.True(t, resp.IsHeld)
	assert.False(t, resp.CanIHold)

	stored, err := f.svc.GetHold(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusActive, stored.Status)
	assert.Equal(t, []events.EventType{events.EventHoldCreated}, f.publisher.types())

	res, err := f.svc.ExpireSweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)

	for _, requester := range []string{"ctv-1", "ctv-2"} {
		resp, err = f.svc.CheckHold(ctx, CheckHoldInput{PropertyID: "prop-1", RequesterID: requester})
		require.NoError(t, err)
		assert.Equal(t, &model.CheckPropertyHoldResponse{IsHeld: false, CanIHold: true}, resp)
	}
}

func TestConfig_UpdateAppliesToNewHolds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cfg, err := f.svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.DurationHours)

	_, err = f.svc.UpdateConfig(ctx, policy.HoldConfig{DurationHours: 0, MaxExtends: 1}, "admin-1")
	requireCode(t, err, apperrors.CodeValidation, http.StatusUnprocessableEntity)

	updated, err := f.svc.UpdateConfig(ctx, policy.HoldConfig{DurationHours: 12, MaxExtends: 1, ExtendBeforeHours: 3}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 12, updated.DurationHours)

	rows, err := f.configs.FindByGroup(ctx, model.ConfigGroupHold)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.NotNil(t, row.UpdatedBy)
		assert.Equal(t, "admin-1", *row.UpdatedBy)
	}

	hold := f.create(t, "prop-1", "ctv-1")
	assert.Equal(t, t0.Add(12*time.Hour), hold.HoldUntil)
}

func TestConfig_MalformedRowsFallBackToDefaults(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.configs.UpsertMany(context.Background(), []model.SystemConfig{
		{Key: model.ConfigKeyHoldDurationHours, Value: "soon", Type: model.ConfigTypeInt, Group: model.ConfigGroupHold},
		{Key: model.ConfigKeyHoldMaxExtends, Value: "5", Type: model.ConfigTypeInt, Group: model.ConfigGroupHold},
	}))

	cfg, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.DurationHours)
	assert.Equal(t, 5, cfg.MaxExtends)
}

func TestListHolds(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "prop-1", "ctv-1")
	f.clock.Advance(time.Minute)
	f.create(t, "prop-2", "ctv-1")
	f.clock.Advance(time.Minute)
	f.create(t, "prop-3", "ctv-2")

	holds, total, err := f.svc.ListHolds(context.Background(), model.HoldFilter{CtvID: "ctv-1"}, 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, holds, 1)
	assert.Equal(t, "prop-2", holds[0].PropertyID)

	_, _, err = f.svc.ListHolds(context.Background(), model.HoldFilter{Status: "PENDING"}, 10, 0)
	requireCode(t, err, apperrors.CodeValidation, http.StatusUnprocessableEntity)
}
