package playlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

type fixture struct {
	store    db.Store
	catalog  *media.Catalog
	composer *Composer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := db.NewTestStore(t)
	catalog := media.NewCatalog(store)
	return fixture{store: store, catalog: catalog, composer: NewComposer(store, catalog)}
}

func (f fixture) newMedia(t *testing.T, name string, typ model.MediaType, duration int) model.MediaAsset {
	t.Helper()
	m, err := f.catalog.Create(context.Background(), media.NewAsset{Filename: name, MediaType: typ, Duration: duration})
	require.NoError(t, err)
	return m
}

func TestComposer_CreateRequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.composer.Create(context.Background(), "   ", nil)
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	p, err := f.composer.Create(context.Background(), "  Menu ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Menu", p.Name)

	blank := ""
	_, err = f.composer.Update(context.Background(), p.ID, &blank, nil)
	assert.True(t, errors.Is(err, errs.InvalidArgument))
}

func TestComposer_ResolveUsesMediaDurationWithoutOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)

	for _, d := range []int{1, 7, 45, 3600} {
		m := f.newMedia(t, "img.png", model.MediaImage, d)
		_, err := f.composer.AddMedia(ctx, p.ID, m.ID, nil)
		require.NoError(t, err)
	}

	exp, err := f.composer.Resolve(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, exp.Items, 4)
	sum := 0
	for i, it := range exp.Items {
		assert.Equal(t, it.Media.Duration, it.EffectiveDuration)
		assert.Equal(t, i, it.OrderIndex)
		sum += it.EffectiveDuration
	}
	assert.Equal(t, sum, exp.TotalDuration)
	assert.Equal(t, 1+7+45+3600, exp.TotalDuration)
}

func TestComposer_OverrideAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	img := f.newMedia(t, "a.png", model.MediaImage, 10)
	vid := f.newMedia(t, "b.mp4", model.MediaVideo, 30)

	_, err := f.composer.AddMedia(ctx, p.ID, img.ID, nil)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, p.ID, vid.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.composer.UpdateEntryDuration(ctx, p.ID, img.ID, 25))

	exp, err := f.composer.Resolve(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, exp.Items, 2)
	assert.Equal(t, 25, exp.Items[0].EffectiveDuration)
	assert.Equal(t, 30, exp.Items[1].EffectiveDuration)
	assert.Equal(t, 55, exp.TotalDuration)

	again, err := f.composer.Resolve(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, exp, again)
}

func TestComposer_UpdateEntryDurationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	img := f.newMedia(t, "a.png", model.MediaImage, 10)
	vid := f.newMedia(t, "b.mp4", model.MediaVideo, 30)
	_, _ = f.composer.AddMedia(ctx, p.ID, img.ID, nil)
	_, _ = f.composer.AddMedia(ctx, p.ID, vid.ID, nil)

	err := f.composer.UpdateEntryDuration(ctx, p.ID, vid.ID, 20)
	assert.True(t, errors.Is(err, errs.Unsupported))

	err = f.composer.UpdateEntryDuration(ctx, p.ID, img.ID, 3601)
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	err = f.composer.UpdateEntryDuration(ctx, p.ID, img.ID, 0)
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	other := f.newMedia(t, "c.png", model.MediaImage, 10)
	err = f.composer.UpdateEntryDuration(ctx, p.ID, other.ID, 20)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestComposer_AddMediaErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	img := f.newMedia(t, "a.png", model.MediaImage, 10)
	vid := f.newMedia(t, "b.mp4", model.MediaVideo, 30)

	_, err := f.composer.AddMedia(ctx, 999, img.ID, nil)
	assert.True(t, errors.Is(err, errs.NotFound))
	_, err = f.composer.AddMedia(ctx, p.ID, 999, nil)
	assert.True(t, errors.Is(err, errs.NotFound))

	over := 20
	_, err = f.composer.AddMedia(ctx, p.ID, vid.ID, &over)
	assert.True(t, errors.Is(err, errs.Unsupported))

	_, err = f.composer.AddMedia(ctx, p.ID, img.ID, &over)
	require.NoError(t, err)
	_, err = f.composer.AddMedia(ctx, p.ID, img.ID, nil)
	assert.True(t, errors.Is(err, errs.Conflict))
}

func TestComposer_AddMediaBatchSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	a := f.newMedia(t, "a.png", model.MediaImage, 10)
	b := f.newMedia(t, "b.png", model.MediaImage, 10)
	_, _ = f.composer.AddMedia(ctx, p.ID, a.ID, nil)

	added, skipped, err := f.composer.AddMediaBatch(ctx, p.ID, []int{a.ID, 404, b.ID})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, b.ID, added[0].MediaID)
	assert.Equal(t, 1, added[0].OrderIndex)
	require.Len(t, skipped, 2)
	assert.Equal(t, a.ID, skipped[0].MediaID)
	assert.Equal(t, errs.KindConflict, skipped[0].Kind)
	assert.Equal(t, 404, skipped[1].MediaID)
	assert.Equal(t, errs.KindNotFound, skipped[1].Kind)

	_, _, err = f.composer.AddMediaBatch(ctx, 999, []int{a.ID})
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestComposer_RemoveLeavesGapAndReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	a := f.newMedia(t, "a.png", model.MediaImage, 1)
	b := f.newMedia(t, "b.png", model.MediaImage, 2)
	c := f.newMedia(t, "c.png", model.MediaImage, 3)
	for _, m := range []model.MediaAsset{a, b, c} {
		_, err := f.composer.AddMedia(ctx, p.ID, m.ID, nil)
		require.NoError(t, err)
	}

	require.NoError(t, f.composer.RemoveMedia(ctx, p.ID, b.ID))
	assert.True(t, errors.Is(f.composer.RemoveMedia(ctx, p.ID, b.ID), errs.NotFound))

	exp, _ := f.composer.Resolve(ctx, p.ID)
	require.Len(t, exp.Items, 2)
	assert.Equal(t, 0, exp.Items[0].OrderIndex)
	assert.Equal(t, 2, exp.Items[1].OrderIndex)

	missing, err := f.composer.Reorder(ctx, p.ID, []db.EntryOrder{
		{MediaID: c.ID, OrderIndex: 0},
		{MediaID: b.ID, OrderIndex: 1},
		{MediaID: a.ID, OrderIndex: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, missing)

	exp, _ = f.composer.Resolve(ctx, p.ID)
	require.Len(t, exp.Items, 2)
	assert.Equal(t, c.ID, exp.Items[0].Media.ID)
	assert.Equal(t, a.ID, exp.Items[1].Media.ID)
}

func TestComposer_ResolveReflectsDeletedMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.composer.Create(ctx, "Menu", nil)
	a := f.newMedia(t, "a.png", model.MediaImage, 4)
	b := f.newMedia(t, "b.png", model.MediaImage, 6)
	_, _ = f.composer.AddMedia(ctx, p.ID, a.ID, nil)
	_, _ = f.composer.AddMedia(ctx, p.ID, b.ID, nil)

	_, err := f.catalog.Delete(ctx, a.ID)
	require.NoError(t, err)

	exp, err := f.composer.Resolve(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, exp.Items, 1)
	assert.Equal(t, b.ID, exp.Items[0].Media.ID)
	assert.Equal(t, 6, exp.TotalDuration)
}

func TestComposer_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.composer.Create(ctx, "A", nil)
	_, _ = f.composer.Create(ctx, "B", nil)
	f.newMedia(t, "a.png", model.MediaImage, 4)

	st, err := f.composer.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalPlaylists)
	assert.Equal(t, 1, st.TotalMedia)
	assert.Equal(t, 0, st.TotalScheduleRules)
}
