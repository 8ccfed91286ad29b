// Package business keeps the single business profile shown on screens.
package business

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/storage"
)

type Service struct {
	store db.Store
	files storage.Storage
}

func NewService(store db.Store, files storage.Storage) *Service {
	return &Service{store: store, files: files}
}

// Get returns the profile, creating the default one on first use.
func (s *Service) Get(ctx context.Context) (model.Business, error) {
	return s.store.GetBusiness(ctx)
}

// Update renames the business and/or replaces its logo. A replaced logo
// file is removed once the new one is recorded.
func (s *Service) Update(ctx context.Context, name *string, logo *multipart.FileHeader) (model.Business, error) {
	if name == nil && logo == nil {
		return model.Business{}, errs.Invalidf("nothing to update")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return model.Business{}, errs.Invalidf("name must not be empty")
		}
		name = &trimmed
	}
	if logo == nil {
		return s.store.UpdateBusiness(ctx, name, nil)
	}

	if storage.MediaTypeOf(logo.Filename) != string(model.MediaImage) {
		return model.Business{}, errs.Invalidf("logo must be an image, got %q", logo.Filename)
	}
	current, err := s.store.GetBusiness(ctx)
	if err != nil {
		return model.Business{}, err
	}
	location, err := s.files.SaveFile(logo, logo.Filename)
	if err != nil {
		return model.Business{}, err
	}

	updated, err := s.store.UpdateBusiness(ctx, name, &location)
	if err != nil {
		s.discard(location)
		return model.Business{}, err
	}
	if current.LogoPath != nil && *current.LogoPath != location {
		s.discard(*current.LogoPath)
	}
	log.Info().Str("logo", location).Msg("[business] logo replaced")
	return updated, nil
}

func (s *Service) discard(location string) {
	if err := s.files.DeleteFile(location); err != nil {
		log.Warn().Err(err).Str("location", location).Msg("[business] could not delete logo file")
	}
}
