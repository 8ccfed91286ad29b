package schedule

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

// Service owns schedule rule CRUD. Every write goes through Normalize
// except Toggle.
type Service struct {
	store  db.Store
	logger zerolog.Logger
}

func NewService(store db.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "schedule_service").Logger(),
	}
}

// Patch holds the fields of an update; nil means unchanged. Setting either
// target id replaces the target, and both must then satisfy NewTarget.
type Patch struct {
	MediaID       *int
	PlaylistID    *int
	Type          *model.ScheduleType
	IsActive      *bool
	Priority      *int
	IsAllDay      *bool
	DailyStart    *string
	DailyEnd      *string
	Weekdays      *[]int
	StartDate     *string
	EndDate       *string
	SpecificTimes *[]string
}

func (s *Service) Create(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error) {
	r, err := Normalize(r)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	s.warnOvernight(r)
	return s.store.CreateScheduleRule(ctx, r)
}

func (s *Service) Get(ctx context.Context, id int) (model.ScheduleRule, error) {
	return s.store.GetScheduleRule(ctx, id)
}

func (s *Service) List(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleRule, error) {
	return s.store.ListScheduleRules(ctx, f)
}

func (s *Service) ForMedia(ctx context.Context, mediaID int) ([]model.ScheduleRule, error) {
	if _, err := s.store.GetMedia(ctx, mediaID); err != nil {
		return nil, err
	}
	return s.store.ListScheduleRules(ctx, model.ScheduleFilter{MediaID: &mediaID})
}

func (s *Service) ForPlaylist(ctx context.Context, playlistID int) ([]model.ScheduleRule, error) {
	if _, err := s.store.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	return s.store.ListScheduleRules(ctx, model.ScheduleFilter{PlaylistID: &playlistID})
}

func (s *Service) Update(ctx context.Context, id int, p Patch) (model.ScheduleRule, error) {
	cur, err := s.store.GetScheduleRule(ctx, id)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	next, err := apply(cur, p)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	next, err = Normalize(next)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	s.warnOvernight(next)
	return s.store.UpdateScheduleRule(ctx, next)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.store.DeleteScheduleRule(ctx, id)
}

// Toggle flips IsActive without revalidating the rule.
func (s *Service) Toggle(ctx context.Context, id int) (model.ScheduleRule, error) {
	return s.store.ToggleScheduleRule(ctx, id)
}

func apply(r model.ScheduleRule, p Patch) (model.ScheduleRule, error) {
	if p.MediaID != nil || p.PlaylistID != nil {
		t, err := NewTarget(p.MediaID, p.PlaylistID)
		if err != nil {
			return r, err
		}
		r.Target = t
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.IsAllDay != nil {
		r.IsAllDay = *p.IsAllDay
	}
	if p.DailyStart != nil {
		r.DailyStart = p.DailyStart
	}
	if p.DailyEnd != nil {
		r.DailyEnd = p.DailyEnd
	}
	if p.Weekdays != nil {
		r.Weekdays = *p.Weekdays
	}
	if p.StartDate != nil {
		r.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = p.EndDate
	}
	if p.SpecificTimes != nil {
		r.SpecificTimes = *p.SpecificTimes
	}
	return r, nil
}

func (s *Service) warnOvernight(r model.ScheduleRule) {
	if IsOvernight(r) {
		s.logger.Warn().
			Int("schedule_id", r.ID).
			Str("daily_start", *r.DailyStart).
			Str("daily_end", *r.DailyEnd).
			Msg("daily window ends before it starts and will never match")
	}
}
