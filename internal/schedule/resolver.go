package schedule

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/metrics"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
)

// PlanItem is one playable unit of a resolved plan.
type PlanItem struct {
	MediaID                  int             `json:"media_id"`
	Filename                 string          `json:"filename"`
	MediaType                model.MediaType `json:"media_type"`
	EffectiveDurationSeconds int             `json:"effective_duration_seconds"`
	SourceScheduleID         int             `json:"source_schedule_id"`
	SourcePriority           int             `json:"source_priority"`
}

// Resolver evaluates every active rule on each call; nothing is cached
// between calls.
type Resolver struct {
	store    db.Store
	catalog  *media.Catalog
	composer *playlist.Composer
	loc      *time.Location
	logger   zerolog.Logger
}

func NewResolver(store db.Store, catalog *media.Catalog, composer *playlist.Composer, loc *time.Location, logger zerolog.Logger) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{
		store:    store,
		catalog:  catalog,
		composer: composer,
		loc:      loc,
		logger:   logger.With().Str("component", "schedule_resolver").Logger(),
	}
}

// Location is the timezone rules are evaluated in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// RulesAt returns the rules in effect at t, highest priority first.
func (r *Resolver) RulesAt(ctx context.Context, t time.Time) ([]model.ScheduleRule, error) {
	t = t.In(r.loc)
	return r.candidates(ctx, func(rule model.ScheduleRule) bool { return IsActiveAt(rule, t) })
}

// RulesOn returns the rules in effect on the day of date, highest priority first.
func (r *Resolver) RulesOn(ctx context.Context, date time.Time) ([]model.ScheduleRule, error) {
	date = date.In(r.loc)
	return r.candidates(ctx, func(rule model.ScheduleRule) bool { return IsActiveOn(rule, date) })
}

// ResolveForInstant returns the plan for t. Items of higher priority rules
// come first; the caller decides how many to play.
func (r *Resolver) ResolveForInstant(ctx context.Context, t time.Time) ([]PlanItem, error) {
	metrics.ScheduleResolutionsTotal.WithLabelValues("instant").Inc()
	rules, err := r.RulesAt(ctx, t)
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, rules)
}

// ResolveForDate is ResolveForInstant without the time of day.
func (r *Resolver) ResolveForDate(ctx context.Context, date time.Time) ([]PlanItem, error) {
	metrics.ScheduleResolutionsTotal.WithLabelValues("date").Inc()
	rules, err := r.RulesOn(ctx, date)
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, rules)
}

func (r *Resolver) candidates(ctx context.Context, match func(model.ScheduleRule) bool) ([]model.ScheduleRule, error) {
	all, err := r.store.ListScheduleRules(ctx, model.ScheduleFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]model.ScheduleRule, 0, len(all))
	for _, rule := range all {
		if match(rule) {
			out = append(out, rule)
		}
	}
	SortByPriority(out)
	metrics.ScheduleMatchedRules.Observe(float64(len(out)))
	return out, nil
}

// SortByPriority orders rules by priority descending, then id ascending.
func SortByPriority(rules []model.ScheduleRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

func (r *Resolver) expand(ctx context.Context, rules []model.ScheduleRule) ([]PlanItem, error) {
	out := []PlanItem{}
	for _, rule := range rules {
		switch t := rule.Target.(type) {
		case model.MediaTarget:
			m, err := r.catalog.Get(ctx, t.MediaID)
			if errors.Is(err, errs.NotFound) {
				// deleted between the rule scan and this read
				r.logger.Debug().Int("schedule_id", rule.ID).Int("media_id", t.MediaID).Msg("scheduled media vanished")
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, PlanItem{
				MediaID:                  m.ID,
				Filename:                 m.Filename,
				MediaType:                m.MediaType,
				EffectiveDurationSeconds: m.Duration,
				SourceScheduleID:         rule.ID,
				SourcePriority:           rule.Priority,
			})
		case model.PlaylistTarget:
			exp, err := r.composer.Resolve(ctx, t.PlaylistID)
			if errors.Is(err, errs.NotFound) {
				r.logger.Debug().Int("schedule_id", rule.ID).Int("playlist_id", t.PlaylistID).Msg("scheduled playlist vanished")
				continue
			}
			if err != nil {
				return nil, err
			}
			for _, it := range exp.Items {
				out = append(out, PlanItem{
					MediaID:                  it.Media.ID,
					Filename:                 it.Media.Filename,
					MediaType:                it.Media.MediaType,
					EffectiveDurationSeconds: it.EffectiveDuration,
					SourceScheduleID:         rule.ID,
					SourcePriority:           rule.Priority,
				})
			}
		default:
			r.logger.Warn().Int("schedule_id", rule.ID).Msg("schedule without target skipped")
		}
	}
	return out, nil
}
