package business

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/storage"
)

func fileHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("logo bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["logo"][0]
}

func newService(t *testing.T) *Service {
	return NewService(db.NewTestStore(t), storage.NewLocalStorage(t.TempDir()))
}

func TestGetReturnsDefaultProfile(t *testing.T) {
	s := newService(t)
	b, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBusinessName, b.Name)
	assert.Nil(t, b.LogoPath)
}

func TestUpdateName(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	name := "  Corner Cafe "

	b, err := s.Update(ctx, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", b.Name)

	blank := "   "
	_, err = s.Update(ctx, &blank, nil)
	assert.True(t, errors.Is(err, errs.InvalidArgument))
	_, err = s.Update(ctx, nil, nil)
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", got.Name)
}

func TestUpdateLogoReplacesPreviousFile(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	first, err := s.Update(ctx, nil, fileHeader(t, "logo.png"))
	require.NoError(t, err)
	require.NotNil(t, first.LogoPath)
	assert.FileExists(t, *first.LogoPath)
	assert.Equal(t, model.DefaultBusinessName, first.Name)

	second, err := s.Update(ctx, nil, fileHeader(t, "logo-v2.jpg"))
	require.NoError(t, err)
	require.NotNil(t, second.LogoPath)
	assert.NotEqual(t, *first.LogoPath, *second.LogoPath)
	assert.FileExists(t, *second.LogoPath)
	_, err = os.Stat(*first.LogoPath)
	assert.True(t, os.IsNotExist(err), "old logo should be removed")
}

func TestUpdateLogoRejectsNonImages(t *testing.T) {
	s := newService(t)
	_, err := s.Update(context.Background(), nil, fileHeader(t, "promo.mp4"))
	assert.True(t, errors.Is(err, errs.InvalidArgument))
}
