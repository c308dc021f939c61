package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/internal/holds/events"
	"brokerage/internal/holds/policy"
	"brokerage/internal/holds/repository"
	"brokerage/internal/holds/validator"
	"brokerage/pkg/clock"
	"brokerage/pkg/config"
	apperrors "brokerage/pkg/errors"
	"brokerage/pkg/model"
	"brokerage/pkg/sanitizer"

	"github.com/google/uuid"
)

// SystemActor is recorded as cancelledBy and event actor for automatic transitions.
const SystemActor = "system"

type HoldService interface {
	CreateHold(ctx context.Context, in CreateHoldInput) (*model.PropertyHold, error)
	ExtendHold(ctx context.Context, in ExtendHoldInput) (*model.PropertyHold, error)
	CancelHold(ctx context.Context, in CancelHoldInput) (*model.PropertyHold, error)
	AutoCancel(ctx context.Context, in AutoCancelInput) (*model.PropertyHold, error)
	AutoCancelByProperty(ctx context.Context, propertyID, reason, cancelledBy string) (*model.PropertyHold, error)
	ExpireSweep(ctx context.Context, now time.Time) (SweepResult, error)

	GetHold(ctx context.Context, id string) (*model.PropertyHold, error)
	ListHolds(ctx context.Context, filter model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, int64, error)
	CheckHold(ctx context.Context, in CheckHoldInput) (*model.CheckPropertyHoldResponse, error)

	GetConfig(ctx context.Context) (policy.HoldConfig, error)
	UpdateConfig(ctx context.Context, cfg policy.HoldConfig, updatedBy string) (policy.HoldConfig, error)
}

type CreateHoldInput struct {
	PropertyID          string
	CtvID               string
	Reason              *string
	CustomDurationHours *int
}

type ExtendHoldInput struct {
	HoldID              string
	RequestedBy         string
	IsAdmin             bool
	CustomDurationHours *int
}

type CancelHoldInput struct {
	HoldID      string
	CancelledBy string
	Reason      *string
	IsAdmin     bool
}

type AutoCancelInput struct {
	HoldID      string
	Reason      string
	CancelledBy string
}

type CheckHoldInput struct {
	PropertyID  string
	RequesterID string
	// RevealHolder lets the caller see who holds the property even when it
	// is not the holder. The transport decides who gets it.
	RevealHolder bool
}

type SweepFailure struct {
	HoldID string `json:"holdId"`
	Error  string `json:"error"`
}

type SweepResult struct {
	Expired int            `json:"expired"`
	Skipped int            `json:"skipped"`
	Failed  []SweepFailure `json:"failed"`
}

type holdService struct {
	holds      repository.HoldRepository
	configs    repository.ConfigRepository
	properties repository.PropertyChecker
	publisher  events.Publisher
	validator  *validator.HoldValidator
	clock      clock.Clock
	cfg        *config.Config
}

func NewHoldService(
	holds repository.HoldRepository,
	configs repository.ConfigRepository,
	properties repository.PropertyChecker,
	publisher events.Publisher,
	validator *validator.HoldValidator,
	clk clock.Clock,
	cfg *config.Config,
) HoldService {
	if properties == nil {
		properties = repository.AllowAllProperties{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &holdService{
		holds:      holds,
		configs:    configs,
		properties: properties,
		publisher:  publisher,
		validator:  validator,
		clock:      clk,
		cfg:        cfg,
	}
}

func (s *holdService) CreateHold(ctx context.Context, in CreateHoldInput) (*model.PropertyHold, error) {
	dto := model.CreatePropertyHoldDto{
		PropertyID:          sanitizer.SanitizeIdentifier(in.PropertyID),
		Reason:              sanitizer.SanitizeOptionalReason(in.Reason),
		CustomDurationHours: in.CustomDurationHours,
	}
	ctvID := sanitizer.SanitizeIdentifier(in.CtvID)
	if ctvID == "" {
		return nil, apperrors.InvalidInput("CTV ID cannot be empty")
	}
	if err := s.validator.ValidateCreate(&dto); err != nil {
		s.cfg.Log.Warn("Hold validation failed",
			"property_id", dto.PropertyID,
			"ctv_id", ctvID,
			"error", err,
		)
		return nil, toAppError(err, "")
	}

	status, err := s.propertyStatus(ctx, dto.PropertyID)
	if err != nil {
		return nil, err
	}
	if !status.IsHoldable() {
		s.cfg.Log.Info("Property is not holdable",
			"property_id", dto.PropertyID,
			"property_status", status,
		)
		return nil, toAppError(fmt.Errorf("%w: property status %s", holdserrors.ErrNotHoldable, status), "")
	}

	holdCfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	holdUntil, err := policy.ComputeHoldUntil(now, holdCfg, dto.CustomDurationHours)
	if err != nil {
		return nil, toAppError(err, "")
	}

	hold := &model.PropertyHold{
		ID:          uuid.New().String(),
		PropertyID:  dto.PropertyID,
		CtvID:       ctvID,
		Status:      model.HoldStatusActive,
		HoldUntil:   holdUntil,
		Reason:      dto.Reason,
		ExtendCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.holds.Insert(writeCtx, hold); err != nil {
		if errors.Is(err, holdserrors.ErrAlreadyHeld) {
			s.cfg.Log.Info("Property already held",
				"property_id", hold.PropertyID,
				"ctv_id", ctvID,
			)
		} else {
			s.cfg.Log.Error("Failed to create hold",
				"property_id", hold.PropertyID,
				"ctv_id", ctvID,
				"error", err,
			)
		}
		return nil, toAppError(err, hold.ID)
	}

	s.cfg.Log.Info("Hold created successfully",
		"hold_id", hold.ID,
		"property_id", hold.PropertyID,
		"ctv_id", hold.CtvID,
		"hold_until", hold.HoldUntil,
	)
	s.publish(ctx, events.EventHoldCreated, ctvID, hold)

	return hold, nil
}

func (s *holdService) ExtendHold(ctx context.Context, in ExtendHoldInput) (*model.PropertyHold, error) {
	if in.HoldID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}
	dto := model.ExtendPropertyHoldDto{CustomDurationHours: in.CustomDurationHours}
	if err := s.validator.ValidateExtend(&dto); err != nil {
		return nil, toAppError(err, in.HoldID)
	}

	holdCfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.withConflictRetry(ctx, "extend", in.HoldID, func() (*model.PropertyHold, error) {
		hold, err := s.findHold(ctx, in.HoldID)
		if err != nil {
			return nil, err
		}
		now := s.clock.Now()
		if !hold.IsActive() || policy.IsExpired(hold, now) {
			return nil, holdserrors.ErrNotActive
		}
		if hold.CtvID != in.RequestedBy && !in.IsAdmin {
			return nil, holdserrors.ErrForbidden
		}
		if !policy.CanExtend(hold, now, holdCfg) {
			return nil, fmt.Errorf("%w: %d of %d extensions used, window opens %dh before %s",
				holdserrors.ErrExtendNotAllowed, hold.ExtendCount, holdCfg.MaxExtends,
				holdCfg.ExtendBeforeHours, hold.HoldUntil.Format(time.RFC3339))
		}

		holdUntil, err := policy.ComputeHoldUntil(now, holdCfg, dto.CustomDurationHours)
		if err != nil {
			return nil, err
		}

		writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
		return s.holds.Extend(writeCtx, hold.ID, hold.ExtendCount, holdUntil, now)
	})
	if err != nil {
		s.logTransitionFailure("extend", in.HoldID, err)
		return nil, toAppError(err, in.HoldID)
	}

	s.cfg.Log.Info("Hold extended successfully",
		"hold_id", updated.ID,
		"property_id", updated.PropertyID,
		"extend_count", updated.ExtendCount,
		"hold_until", updated.HoldUntil,
	)
	s.publish(ctx, events.EventHoldExtended, in.RequestedBy, updated)

	return updated, nil
}

func (s *holdService) CancelHold(ctx context.Context, in CancelHoldInput) (*model.PropertyHold, error) {
	if in.HoldID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}
	if in.CancelledBy == "" {
		return nil, apperrors.InvalidInput("Cancelling user cannot be empty")
	}
	dto := model.CancelPropertyHoldDto{Reason: sanitizer.SanitizeOptionalReason(in.Reason)}
	if err := s.validator.ValidateCancel(&dto); err != nil {
		return nil, toAppError(err, in.HoldID)
	}

	to := model.HoldStatusCancelled
	if in.IsAdmin {
		to = model.HoldStatusCancelledByAdmin
	}

	updated, err := s.withConflictRetry(ctx, "cancel", in.HoldID, func() (*model.PropertyHold, error) {
		hold, err := s.findHold(ctx, in.HoldID)
		if err != nil {
			return nil, err
		}
		if !hold.IsActive() {
			return nil, holdserrors.ErrNotActive
		}
		if hold.CtvID != in.CancelledBy && !in.IsAdmin {
			return nil, holdserrors.ErrForbidden
		}

		cancelledBy := in.CancelledBy
		return s.transition(ctx, hold.ID, repository.Transition{
			To:              to,
			CancelledBy:     &cancelledBy,
			CancelledReason: dto.Reason,
			At:              s.clock.Now(),
		})
	})
	if err != nil {
		s.logTransitionFailure("cancel", in.HoldID, err)
		return nil, toAppError(err, in.HoldID)
	}

	s.cfg.Log.Info("Hold cancelled successfully",
		"hold_id", updated.ID,
		"property_id", updated.PropertyID,
		"status", updated.Status,
		"cancelled_by", in.CancelledBy,
	)
	s.publish(ctx, events.EventTypeFor(updated.Status), in.CancelledBy, updated)

	return updated, nil
}

func (s *holdService) AutoCancel(ctx context.Context, in AutoCancelInput) (*model.PropertyHold, error) {
	if in.HoldID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}
	reason, cancelledBy, err := s.autoCancelArgs(in.Reason, in.CancelledBy)
	if err != nil {
		return nil, err
	}

	updated, err := s.withConflictRetry(ctx, "auto_cancel", in.HoldID, func() (*model.PropertyHold, error) {
		hold, err := s.findHold(ctx, in.HoldID)
		if err != nil {
			return nil, err
		}
		return s.autoCancelHold(ctx, hold, reason, cancelledBy)
	})
	if err != nil {
		s.logTransitionFailure("auto_cancel", in.HoldID, err)
		return nil, toAppError(err, in.HoldID)
	}

	s.logAutoCancelled(updated, reason)
	s.publish(ctx, events.EventTypeFor(updated.Status), cancelledBy, updated)
	return updated, nil
}

// AutoCancelByProperty releases whatever ACTIVE hold a property has, for
// example when the listing is sold or withdrawn.
func (s *holdService) AutoCancelByProperty(ctx context.Context, propertyID, reason, cancelledBy string) (*model.PropertyHold, error) {
	propertyID = sanitizer.SanitizeIdentifier(propertyID)
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}
	reason, cancelledBy, err := s.autoCancelArgs(reason, cancelledBy)
	if err != nil {
		return nil, err
	}

	updated, err := s.withConflictRetry(ctx, "auto_cancel", propertyID, func() (*model.PropertyHold, error) {
		readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		hold, err := s.holds.FindActiveByProperty(readCtx, propertyID)
		if err != nil {
			return nil, err
		}
		return s.autoCancelHold(ctx, hold, reason, cancelledBy)
	})
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			notFound := apperrors.NotFoundWithID("Active hold for property", propertyID)
			notFound.Err = err
			return nil, notFound
		}
		s.logTransitionFailure("auto_cancel", propertyID, err)
		return nil, toAppError(err, "")
	}

	s.logAutoCancelled(updated, reason)
	s.publish(ctx, events.EventTypeFor(updated.Status), cancelledBy, updated)
	return updated, nil
}

func (s *holdService) autoCancelArgs(reason, cancelledBy string) (string, string, error) {
	dto := model.AutoCancelPropertyHoldDto{Reason: sanitizer.SanitizeReason(reason)}
	if err := s.validator.ValidateAutoCancel(&dto); err != nil {
		return "", "", toAppError(err, "")
	}
	cancelledBy = sanitizer.SanitizeIdentifier(cancelledBy)
	if cancelledBy == "" {
		cancelledBy = SystemActor
	}
	return dto.Reason, cancelledBy, nil
}

func (s *holdService) autoCancelHold(ctx context.Context, hold *model.PropertyHold, reason, cancelledBy string) (*model.PropertyHold, error) {
	if !hold.IsActive() {
		return nil, holdserrors.ErrNotActive
	}
	return s.transition(ctx, hold.ID, repository.Transition{
		To:              model.HoldStatusAutoCancelled,
		CancelledBy:     &cancelledBy,
		CancelledReason: &reason,
		At:              s.clock.Now(),
	})
}

func (s *holdService) logAutoCancelled(hold *model.PropertyHold, reason string) {
	s.cfg.Log.Info("Hold auto-cancelled",
		"hold_id", hold.ID,
		"property_id", hold.PropertyID,
		"ctv_id", hold.CtvID,
		"reason", reason,
	)
}

// ExpireSweep moves every ACTIVE hold whose holdUntil has passed to EXPIRED.
// A hold that changed since it was listed is skipped, so overlapping sweeps
// and concurrent extends are safe.
func (s *holdService) ExpireSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{Failed: []SweepFailure{}}
	batch := s.cfg.HoldSweepBatchSize
	if batch <= 0 {
		batch = config.DefaultHoldSweepBatchSize
	}

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, apperrors.Internal("Expire sweep interrupted", err)
		}

		readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		page, err := s.holds.FindExpired(readCtx, now, afterID, batch)
		cancel()
		if err != nil {
			s.cfg.Log.Error("Failed to list expired holds",
				"after_id", afterID,
				"error", err,
			)
			return result, apperrors.Internal("Failed to list expired holds", err)
		}

		for _, hold := range page {
			afterID = hold.ID
			dueBy := now
			expired, err := s.transition(ctx, hold.ID, repository.Transition{
				To:    model.HoldStatusExpired,
				At:    now,
				DueBy: &dueBy,
			})
			switch {
			case err == nil:
				result.Expired++
				s.publish(ctx, events.EventTypeFor(expired.Status), SystemActor, expired)
			case errors.Is(err, holdserrors.ErrStorageConflict), errors.Is(err, holdserrors.ErrNotFound):
				result.Skipped++
			default:
				s.cfg.Log.Error("Failed to expire hold",
					"hold_id", hold.ID,
					"property_id", hold.PropertyID,
					"error", err,
				)
				result.Failed = append(result.Failed, SweepFailure{HoldID: hold.ID, Error: err.Error()})
			}
		}

		if len(page) < batch {
			break
		}
	}

	if result.Expired > 0 || result.Skipped > 0 || len(result.Failed) > 0 {
		s.cfg.Log.Info("Expire sweep finished",
			"expired", result.Expired,
			"skipped", result.Skipped,
			"failed", len(result.Failed),
		)
	}
	return result, nil
}

func (s *holdService) GetHold(ctx context.Context, id string) (*model.PropertyHold, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.findHold(ctx, id)
	if err != nil {
		if !errors.Is(err, holdserrors.ErrNotFound) && !errors.Is(err, holdserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to get hold by ID",
				"hold_id", id,
				"error", err,
			)
		}
		return nil, toAppError(err, id)
	}
	return hold, nil
}

func (s *holdService) ListHolds(ctx context.Context, filter model.HoldFilter, limit int, offset int64) ([]*model.PropertyHold, int64, error) {
	filter.CtvID = sanitizer.SanitizeIdentifier(filter.CtvID)
	filter.PropertyID = sanitizer.SanitizeIdentifier(filter.PropertyID)
	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, 0, toAppError(err, "")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var holds []*model.PropertyHold
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.holds.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count holds", "error", err)
			errCount = apperrors.Internal("Failed to count holds", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		holds, err = s.holds.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list holds",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve holds", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return holds, count, nil
}

// CheckHold reports the hold situation of one property from the requester's
// point of view. An ACTIVE hold counts as held until the sweep expires it.
func (s *holdService) CheckHold(ctx context.Context, in CheckHoldInput) (*model.CheckPropertyHoldResponse, error) {
	propertyID := sanitizer.SanitizeIdentifier(in.PropertyID)
	if propertyID == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	hold, err := s.holds.FindActiveByProperty(readCtx, propertyID)
	if errors.Is(err, holdserrors.ErrNotFound) {
		return &model.CheckPropertyHoldResponse{IsHeld: false, CanIHold: true}, nil
	}
	if err != nil {
		s.cfg.Log.Error("Failed to check property hold",
			"property_id", propertyID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to check property hold", err)
	}

	mine := in.RequesterID != "" && hold.CtvID == in.RequesterID
	holdUntil := hold.HoldUntil
	resp := &model.CheckPropertyHoldResponse{
		IsHeld:    true,
		HoldUntil: &holdUntil,
		CanIHold:  mine,
	}
	if in.RevealHolder || mine {
		holder := hold.CtvID
		resp.HoldBy = &holder
	}
	if mine {
		resp.MyActiveHold = hold
	}
	return resp, nil
}

func (s *holdService) GetConfig(ctx context.Context) (policy.HoldConfig, error) {
	return s.loadConfig(ctx)
}

// UpdateConfig replaces the stored hold settings as one unit.
func (s *holdService) UpdateConfig(ctx context.Context, cfg policy.HoldConfig, updatedBy string) (policy.HoldConfig, error) {
	cfg.MaxCustomDurationHours = s.cfg.HoldMaxCustomDurationHours
	if err := s.validator.ValidateConfig(&cfg); err != nil {
		return policy.HoldConfig{}, toAppError(err, "")
	}
	if err := cfg.Validate(); err != nil {
		return policy.HoldConfig{}, toAppError(err, "")
	}

	updatedBy = sanitizer.SanitizeIdentifier(updatedBy)
	var by *string
	if updatedBy != "" {
		by = &updatedBy
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.configs.UpsertMany(writeCtx, policy.ConfigRows(cfg, by, s.clock.Now())); err != nil {
		s.cfg.Log.Error("Failed to update hold config", "error", err)
		return policy.HoldConfig{}, apperrors.Internal("Failed to update hold configuration", err)
	}

	s.cfg.Log.Info("Hold config updated",
		"duration_hours", cfg.DurationHours,
		"max_extends", cfg.MaxExtends,
		"extend_before_hours", cfg.ExtendBeforeHours,
		"updated_by", updatedBy,
	)
	return cfg, nil
}

// Defaults returns the process level fallback for hold settings.
func Defaults(cfg *config.Config) policy.HoldConfig {
	return policy.HoldConfig{
		DurationHours:          cfg.HoldDurationHours,
		MaxExtends:             cfg.HoldMaxExtends,
		ExtendBeforeHours:      cfg.HoldExtendBeforeHours,
		MaxCustomDurationHours: cfg.HoldMaxCustomDurationHours,
	}
}

func (s *holdService) loadConfig(ctx context.Context) (policy.HoldConfig, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	rows, err := s.configs.FindByGroup(readCtx, model.ConfigGroupHold)
	if err != nil {
		s.cfg.Log.Error("Failed to load hold config", "error", err)
		return policy.HoldConfig{}, apperrors.Internal("Failed to load hold configuration", err)
	}

	holdCfg, problems := policy.ResolveConfig(rows, Defaults(s.cfg))
	for _, p := range problems {
		s.cfg.Log.Warn("Ignoring hold config value", "error", p)
	}
	return holdCfg, nil
}

func (s *holdService) propertyStatus(ctx context.Context, propertyID string) (model.PropertyStatus, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	status, err := s.properties.Status(readCtx, propertyID)
	if errors.Is(err, holdserrors.ErrPropertyNotFound) {
		return "", toAppError(fmt.Errorf("%w: %w", holdserrors.ErrNotHoldable, err), "")
	}
	if err != nil {
		s.cfg.Log.Error("Failed to look up property status",
			"property_id", propertyID,
			"error", err,
		)
		return "", apperrors.Internal("Failed to look up property", err)
	}
	return status, nil
}

func (s *holdService) findHold(ctx context.Context, id string) (*model.PropertyHold, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()
	return s.holds.FindByID(readCtx, id)
}

func (s *holdService) transition(ctx context.Context, id string, t repository.Transition) (*model.PropertyHold, error) {
	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return s.holds.Transition(writeCtx, id, t)
}

// withConflictRetry runs attempt, and once more when a guarded write lost a
// race. attempt must re-read the hold so the second try sees fresh state.
func (s *holdService) withConflictRetry(ctx context.Context, op, id string, attempt func() (*model.PropertyHold, error)) (*model.PropertyHold, error) {
	hold, err := attempt()
	if !errors.Is(err, holdserrors.ErrStorageConflict) {
		return hold, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, err
	}

	s.cfg.Log.Warn("Guarded hold update conflicted, retrying",
		"operation", op,
		"id", id,
	)
	return attempt()
}

func (s *holdService) logTransitionFailure(op, id string, err error) {
	switch {
	case errors.Is(err, holdserrors.ErrNotFound),
		errors.Is(err, holdserrors.ErrInvalidID),
		errors.Is(err, holdserrors.ErrNotActive),
		errors.Is(err, holdserrors.ErrForbidden),
		errors.Is(err, holdserrors.ErrExtendNotAllowed),
		errors.Is(err, holdserrors.ErrInvalidDuration):
		s.cfg.Log.Info("Hold transition rejected",
			"operation", op,
			"id", id,
			"reason", err,
		)
	default:
		s.cfg.Log.Error("Hold transition failed",
			"operation", op,
			"id", id,
			"error", err,
		)
	}
}

// publish announces a committed transition. Delivery problems are logged and
// never undo the transition.
func (s *holdService) publish(ctx context.Context, eventType events.EventType, actor string, hold *model.PropertyHold) {
	event := events.NewHoldEvent(eventType, actor, hold, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish hold event",
			"event_id", event.EventID,
			"event_type", eventType,
			"hold_id", hold.ID,
			"property_id", hold.PropertyID,
			"error", err,
		)
	}
}
