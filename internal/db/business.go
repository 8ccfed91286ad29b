package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const businessColumns = `name, logo_path, updated_at`

// @ BUSINESS
func (s *pgStore) GetBusiness(ctx context.Context) (model.Business, error) {
	var b model.Business
	const q = `
	WITH ins AS (
	  INSERT INTO business (id, name, updated_at)
	  VALUES (1, $1, now())
	  ON CONFLICT (id) DO NOTHING
	  RETURNING ` + businessColumns + `
	)
	SELECT ` + businessColumns + ` FROM ins
	UNION ALL
	SELECT ` + businessColumns + ` FROM business WHERE id = 1
	LIMIT 1;`
	if err := s.db.GetContext(ctx, &b, q, model.DefaultBusinessName); err != nil {
		log.Error().Err(err).Msg("[db] GetBusiness failed")
		return model.Business{}, translate(err, "business")
	}
	return b, nil
}

// UpdateBusiness upserts the profile; nil arguments keep the stored value.
func (s *pgStore) UpdateBusiness(ctx context.Context, name, logoPath *string) (model.Business, error) {
	var b model.Business
	const q = `
	INSERT INTO business (id, name, logo_path, updated_at)
	VALUES (1, COALESCE($1::text, $3::text), $2::text, now())
	ON CONFLICT (id) DO UPDATE SET
	  name       = COALESCE($1::text, business.name),
	  logo_path  = COALESCE($2::text, business.logo_path),
	  updated_at = now()
	RETURNING ` + businessColumns + `;`
	if err := s.db.GetContext(ctx, &b, q, name, logoPath, model.DefaultBusinessName); err != nil {
		log.Error().Err(err).Msg("[db] UpdateBusiness failed")
		return model.Business{}, translate(err, "business")
	}
	return b, nil
}
