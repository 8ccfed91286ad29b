package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

func TestService_CreateRejectsMissingTarget(t *testing.T) {
	e := newEnv(t)
	_, err := e.service.Create(context.Background(), model.ScheduleRule{
		Target:   model.MediaTarget{MediaID: 77},
		Type:     model.ScheduleSimple,
		IsAllDay: true,
	})
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestService_UpdatePatchesAndRevalidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.newMedia(t, "a.png", model.MediaImage, 5)
	p, _ := e.composer.Create(ctx, "Lobby", nil)
	r := e.allDay(t, model.MediaTarget{MediaID: m.ID}, 1)

	prio := 9
	updated, err := e.service.Update(ctx, r.ID, Patch{Priority: &prio, PlaylistID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Priority)
	assert.Equal(t, model.PlaylistTarget{PlaylistID: p.ID}, updated.Target)
	assert.True(t, updated.IsAllDay)

	off := false
	_, err = e.service.Update(ctx, r.ID, Patch{IsAllDay: &off})
	assert.True(t, errors.Is(err, errs.InvalidArgument), "window required once all-day is off")

	_, err = e.service.Update(ctx, r.ID, Patch{MediaID: &m.ID, PlaylistID: &p.ID})
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	_, err = e.service.Update(ctx, 404, Patch{Priority: &prio})
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestService_ListsByTarget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := e.newMedia(t, "a.png", model.MediaImage, 5)
	p, _ := e.composer.Create(ctx, "Lobby", nil)
	e.allDay(t, model.MediaTarget{MediaID: m.ID}, 1)
	e.allDay(t, model.PlaylistTarget{PlaylistID: p.ID}, 1)
	e.allDay(t, model.PlaylistTarget{PlaylistID: p.ID}, 2)

	byMedia, err := e.service.ForMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, byMedia, 1)

	byPlaylist, err := e.service.ForPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, byPlaylist, 2)

	_, err = e.service.ForMedia(ctx, 999)
	assert.True(t, errors.Is(err, errs.NotFound))
	_, err = e.service.ForPlaylist(ctx, 999)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestService_OvernightIsStoredAsIs(t *testing.T) {
	e := newEnv(t)
	m := e.newMedia(t, "a.png", model.MediaImage, 5)
	r, err := e.service.Create(context.Background(), model.ScheduleRule{
		Target:     model.MediaTarget{MediaID: m.ID},
		Type:       model.ScheduleSimple,
		IsActive:   true,
		DailyStart: strp("22:00"),
		DailyEnd:   strp("06:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "22:00", *r.DailyStart)
	assert.Equal(t, "06:00", *r.DailyEnd)
}

func TestService_DeleteAndToggleMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assert.True(t, errors.Is(e.service.Delete(ctx, 1), errs.NotFound))
	_, err := e.service.Toggle(ctx, 1)
	assert.True(t, errors.Is(err, errs.NotFound))
}
