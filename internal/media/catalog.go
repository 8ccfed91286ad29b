// Package media owns media asset records.
package media

import (
	"context"
	"errors"
	"strings"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

type Catalog struct {
	store db.Store
}

func NewCatalog(store db.Store) *Catalog {
	return &Catalog{store: store}
}

// NewAsset is what an upload produces before it gets an id.
type NewAsset struct {
	Filename    string
	MediaType   model.MediaType
	Duration    int
	StoragePath string
}

func (c *Catalog) Create(ctx context.Context, in NewAsset) (model.MediaAsset, error) {
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		return model.MediaAsset{}, errs.Invalidf("filename is required")
	}
	if !in.MediaType.Valid() {
		return model.MediaAsset{}, errs.Invalidf("media type must be image or video, got %q", in.MediaType)
	}
	if in.Duration < 1 {
		return model.MediaAsset{}, errs.Invalidf("duration must be at least 1 second")
	}
	return c.store.CreateMedia(ctx, model.MediaAsset{
		Filename:    name,
		MediaType:   in.MediaType,
		Duration:    in.Duration,
		StoragePath: in.StoragePath,
	})
}

func (c *Catalog) Get(ctx context.Context, id int) (model.MediaAsset, error) {
	return c.store.GetMedia(ctx, id)
}

func (c *Catalog) Exists(ctx context.Context, id int) (bool, error) {
	_, err := c.store.GetMedia(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errs.NotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *Catalog) List(ctx context.Context, limit, offset int) ([]model.MediaAsset, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return c.store.ListMedia(ctx, limit, offset)
}

// Update changes the display name and/or duration. Whether a video's
// duration may change is decided by the caller.
func (c *Catalog) Update(ctx context.Context, id int, filename *string, duration *int) (model.MediaAsset, error) {
	if filename != nil {
		trimmed := strings.TrimSpace(*filename)
		if trimmed == "" {
			return model.MediaAsset{}, errs.Invalidf("filename must not be empty")
		}
		filename = &trimmed
	}
	if duration != nil && *duration < 1 {
		return model.MediaAsset{}, errs.Invalidf("duration must be at least 1 second")
	}
	return c.store.UpdateMedia(ctx, id, filename, duration)
}

// Delete removes the asset along with its playlist entries and schedule
// rules. The returned record lets the caller clean up the stored file.
func (c *Catalog) Delete(ctx context.Context, id int) (model.MediaAsset, error) {
	return c.store.DeleteMedia(ctx, id)
}

func (c *Catalog) PlaylistsContaining(ctx context.Context, id int) ([]model.MediaPlaylistRef, error) {
	ok, err := c.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFoundf("media %d not found", id)
	}
	return c.store.ListPlaylistsForMedia(ctx, id)
}
