package service

import (
	"context"
	"fmt"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/domain"
	"shorebook/internal/metrics"
	"shorebook/internal/models"

	"github.com/rs/zerolog"
)

// SafeguardPipeline runs the validation rules in fixed order, stopping at
// the first block the caller has not overridden. Cheap local checks run
// before checks that touch the store, so trivially invalid drafts never
// cost a round-trip.
type SafeguardPipeline struct {
	rules  []domain.SafeguardRule
	logger *zerolog.Logger
}

func NewSafeguardPipeline(
	directory domain.CustomerDirectory,
	cat *catalog.Snapshot,
	availability domain.AvailabilityChecker,
	contiguity domain.ContiguityChecker,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *SafeguardPipeline {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	now := time.Now
	return &SafeguardPipeline{
		rules: []domain.SafeguardRule{
			&pastDateRule{now: now, maxAdvanceDays: maxAdvanceDays},
			&stayWindowRule{directory: directory},
			&capacityRule{catalog: cat},
			&availabilityRule{checker: availability},
			&duplicateRule{directory: directory},
			&contiguityRule{checker: contiguity},
		},
		logger: logger,
	}
}

// Evaluate runs the pipeline over the draft. Soft blocks are recoverable:
// the caller records an override or mutates the draft and re-runs. A hard
// block terminates the attempt.
func (p *SafeguardPipeline) Evaluate(ctx context.Context, draft *models.BookingDraft) (*models.EvaluationOutcome, error) {
	if draft == nil || len(draft.ResourceIDs) == 0 || len(draft.Dates) == 0 || draft.OccupantCount <= 0 {
		return nil, fmt.Errorf("%w: resources, dates and occupant count are required", ErrInvalidDraft)
	}

	for _, rule := range p.rules {
		block, err := rule.Evaluate(ctx, draft)
		if err != nil {
			p.logger.Error().Err(err).Str("rule", string(rule.Name())).Msg("safeguard evaluation failed")
			return nil, err
		}
		if block == nil {
			continue
		}
		if !block.Hard && !block.RouteToResolution && draft.Overridden(block.Override) {
			continue
		}

		metrics.IncSafeguardBlock(string(block.Rule))
		p.logger.Info().
			Str("rule", string(block.Rule)).
			Bool("hard", block.Hard).
			Str("customer", draft.CustomerRef).
			Msg("draft blocked")

		return &models.EvaluationOutcome{
			Proceed:           false,
			Block:             block,
			RouteToResolution: block.RouteToResolution,
			Conflicts:         block.Conflicts,
			ViewReservationID: block.ViewReservationID,
		}, nil
	}

	return &models.EvaluationOutcome{Proceed: true}, nil
}

// pastDateRule blocks dates before today, with no override: a booking
// cannot retroactively occupy a resource. It also bounds how far ahead a
// booking may start.
type pastDateRule struct {
	now            func() time.Time
	maxAdvanceDays int
}

func (r *pastDateRule) Name() models.RuleName { return models.RulePastDate }

func (r *pastDateRule) Evaluate(_ context.Context, draft *models.BookingDraft) (*models.Block, error) {
	today := models.DayKey(r.now())
	horizon := models.DayKey(r.now().AddDate(0, 0, r.maxAdvanceDays))

	var past, beyond []string
	for _, d := range draft.Dates {
		key := models.DayKey(d)
		switch {
		case key < today:
			past = append(past, key)
		case key > horizon:
			beyond = append(beyond, key)
		}
	}
	if len(past) > 0 {
		return &models.Block{Rule: models.RulePastDate, Hard: true, Dates: past}, nil
	}
	if len(beyond) > 0 {
		return &models.Block{Rule: models.RuleAdvanceHorizon, Hard: true, Dates: beyond}, nil
	}
	return nil, nil
}

// stayWindowRule applies only when the customer resolves to a guest with a
// known stay window; dates outside it are a soft block.
type stayWindowRule struct {
	directory domain.CustomerDirectory
}

func (r *stayWindowRule) Name() models.RuleName { return models.RuleStayWindow }

func (r *stayWindowRule) Evaluate(ctx context.Context, draft *models.BookingDraft) (*models.Block, error) {
	info, err := r.directory.ResolveCustomer(ctx, draft.CustomerRef)
	if err != nil {
		return nil, err
	}
	if info == nil || info.StayWindow == nil {
		return nil, nil
	}

	var offending []string
	for _, d := range draft.Dates {
		if !info.StayWindow.Contains(d) {
			offending = append(offending, models.DayKey(d))
		}
	}
	if len(offending) == 0 {
		return nil, nil
	}
	return &models.Block{
		Rule:     models.RuleStayWindow,
		Override: models.OverrideStayWindow,
		Dates:    offending,
	}, nil
}

// capacityRule compares occupants to selection capacity. Shortage and
// excess are both soft; excess is never a hard block.
type capacityRule struct {
	catalog *catalog.Snapshot
}

func (r *capacityRule) Name() models.RuleName { return models.RuleCapacity }

func (r *capacityRule) Evaluate(_ context.Context, draft *models.BookingDraft) (*models.Block, error) {
	total, err := r.catalog.CapacitySum(draft.ResourceIDs)
	if err != nil {
		return nil, err
	}

	switch {
	case draft.OccupantCount > total:
		return &models.Block{
			Rule:              models.RuleCapacity,
			Override:          models.OverrideCapacityShortage,
			SelectionCapacity: total,
			OccupantCount:     draft.OccupantCount,
		}, nil
	case draft.OccupantCount < total:
		return &models.Block{
			Rule:              models.RuleCapacity,
			Override:          models.OverrideCapacityExcess,
			SelectionCapacity: total,
			OccupantCount:     draft.OccupantCount,
		}, nil
	}
	return nil, nil
}

// availabilityRule delegates to the availability index. Multi-date
// conflicts route into the resolution protocol; single-date conflicts are a
// hard block, retry-with-different-resources is the only way out.
type availabilityRule struct {
	checker domain.AvailabilityChecker
}

func (r *availabilityRule) Name() models.RuleName { return models.RuleAvailability }

func (r *availabilityRule) Evaluate(ctx context.Context, draft *models.BookingDraft) (*models.Block, error) {
	report, err := r.checker.CheckAvailability(ctx, draft.ResourceIDs, draft.Dates)
	if err != nil {
		return nil, err
	}
	if report.AllAvailable {
		return nil, nil
	}

	block := &models.Block{
		Rule:      models.RuleAvailability,
		Conflicts: report.Conflicts,
	}
	if len(draft.Dates) > 1 {
		block.RouteToResolution = true
	} else {
		block.Hard = true
	}
	return block, nil
}

// duplicateRule soft-blocks when the customer already holds an active
// reservation on a requested day, pointing the caller at it.
type duplicateRule struct {
	directory domain.CustomerDirectory
}

func (r *duplicateRule) Name() models.RuleName { return models.RuleDuplicate }

func (r *duplicateRule) Evaluate(ctx context.Context, draft *models.BookingDraft) (*models.Block, error) {
	info, err := r.directory.ResolveCustomer(ctx, draft.CustomerRef)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	requested := make(map[string]bool, len(draft.Dates))
	for _, key := range draft.Dates.Keys() {
		requested[key] = true
	}

	for _, existing := range info.ActiveReservations {
		var overlap []string
		for _, dayKey := range existing.Days {
			if requested[dayKey] {
				overlap = append(overlap, dayKey)
			}
		}
		if len(overlap) > 0 {
			return &models.Block{
				Rule:              models.RuleDuplicate,
				Override:          models.OverrideDuplicate,
				Dates:             overlap,
				ViewReservationID: existing.ReservationID,
			}, nil
		}
	}
	return nil, nil
}

// contiguityRule warns on selections that leave holes in a zone row. Only
// meaningful for multi-resource selections.
type contiguityRule struct {
	checker domain.ContiguityChecker
}

func (r *contiguityRule) Name() models.RuleName { return models.RuleContiguity }

func (r *contiguityRule) Evaluate(_ context.Context, draft *models.BookingDraft) (*models.Block, error) {
	if len(draft.ResourceIDs) < 2 {
		return nil, nil
	}

	day := time.Time{}
	if len(draft.Dates) > 0 {
		day = draft.Dates[0]
	}
	report, err := r.checker.CheckContiguity(draft.ResourceIDs, day)
	if err != nil {
		return nil, err
	}
	if report.IsContiguous && !report.CrossZone {
		return nil, nil
	}
	return &models.Block{
		Rule:     models.RuleContiguity,
		Override: models.OverrideContiguity,
		GapCount: report.GapCount,
	}, nil
}
