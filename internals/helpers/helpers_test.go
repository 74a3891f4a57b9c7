package helper_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	helper "pdam_pelanggan_backend/internals/helpers"
)

func TestAppErrorStatus(t *testing.T) {
	cases := []struct {
		err    *helper.AppError
		status int
	}{
		{helper.ErrValidation("x"), fiber.StatusUnprocessableEntity},
		{helper.ErrConflict("x"), fiber.StatusConflict},
		{helper.ErrInvalidState("x"), fiber.StatusConflict},
		{helper.ErrNotFound("x"), fiber.StatusNotFound},
		{helper.ErrUpstream(errors.New("down"), "x"), fiber.StatusBadGateway},
		{helper.ErrForbidden("x"), fiber.StatusForbidden},
		{helper.ErrUnauthorized("x"), fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Kind)
	}

	wrapped := errors.Wrap(helper.ErrConflict("dup"), "create")
	assert.True(t, helper.IsKind(wrapped, helper.KindConflict))
	assert.Equal(t, helper.KindConflict, helper.AsAppError(wrapped).Kind)
	assert.Equal(t, helper.KindUpstream, helper.AsAppError(errors.New("boom")).Kind)
	assert.Nil(t, helper.AsAppError(nil))
}

func TestDBError(t *testing.T) {
	assert.NoError(t, helper.DBError(nil, ""))
	assert.True(t, helper.IsKind(helper.DBError(gorm.ErrRecordNotFound, "tidak ada"), helper.KindNotFound))
	assert.Equal(t, "Data tidak ditemukan", helper.AsAppError(helper.DBError(gorm.ErrRecordNotFound, "")).Message)
	assert.True(t, helper.IsKind(helper.DBError(gorm.ErrDuplicatedKey, ""), helper.KindConflict))
	assert.True(t, helper.IsKind(helper.DBError(&pgconn.PgError{Code: "23505"}, ""), helper.KindConflict))
	assert.True(t, helper.IsKind(helper.DBError(errors.New("conn reset"), ""), helper.KindUpstream))

	assert.False(t, helper.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, helper.IsUniqueViolation(errors.New("UNIQUE constraint failed: pelanggan.id_pelanggan")))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Budi Santoso", helper.CleanText("  Budi \t  Santoso \n"))
	// e + combining acute → é (NFC)
	assert.Equal(t, "Jos\u00e9", helper.CleanText("Jose\u0301"))
	assert.Nil(t, helper.StrPtr("   "))
	assert.Equal(t, "a", *helper.StrPtr(" a "))
	assert.Equal(t, "", helper.Deref(nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeImage(t *testing.T) {
	out, err := helper.NormalizeImage(helper.Upload{Filename: "rumah.png", Data: pngBytes(t, 40, 20)}, helper.DefaultWebPOptions)
	require.NoError(t, err)
	assert.Equal(t, "rumah.webp", out.Filename)
	assert.Equal(t, "image/webp", out.ContentType)
	assert.Equal(t, "RIFF", string(out.Data[:4]))

	pdf := []byte("%PDF-1.4\n%âãÏÓ\n")
	out, err = helper.NormalizeImage(helper.Upload{Filename: "kk.pdf", Data: pdf}, helper.DefaultWebPOptions)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, pdf, out.Data)

	_, err = helper.NormalizeImage(helper.Upload{Filename: "x.txt", Data: []byte("bukan gambar")}, helper.DefaultWebPOptions)
	assert.True(t, helper.IsKind(err, helper.KindValidation))
}

type memStorage struct{ got []helper.Upload }

func (m *memStorage) Upload(_ context.Context, folder string, up helper.Upload) (string, error) {
	m.got = append(m.got, up)
	return "https://cdn.test/" + folder + "/" + up.Filename, nil
}
func (m *memStorage) Delete(context.Context, string) error { return nil }

func TestWebPStorageResizes(t *testing.T) {
	next := &memStorage{}
	s := helper.NewWebPStorage(next)
	s.Options = helper.WebPOptions{MaxW: 100, MaxH: 100, Quality: 70}

	url, err := s.Upload(context.Background(), "registrasi", helper.Upload{Filename: "ktp.png", Data: pngBytes(t, 400, 200)})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/registrasi/ktp.webp", url)
	require.Len(t, next.got, 1)

	img, err := webp.Decode(bytes.NewReader(next.got[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestParseFiberAndErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: helper.NewErrorHandler(zap.NewNop())})
	var got helper.Params
	app.Get("/list", func(c *fiber.Ctx) error {
		got = helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
		return helper.JsonOK(c, "ok", nil)
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return helper.ErrValidationField("id_pelanggan", "wajib diisi")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/list?page=0&per_page=1000&sort_by=nama&order=ASC", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, helper.Params{Page: 1, PerPage: 200, SortBy: "nama", SortOrder: "asc"}, got)
	assert.Equal(t, "nama_pelanggan ASC", got.OrderExpr(map[string]string{"nama": "nama_pelanggan", "created_at": "created_at"}, "created_at"))
	assert.Equal(t, "created_at ASC", helper.Params{SortBy: "drop table", SortOrder: "asc"}.OrderExpr(map[string]string{"created_at": "created_at"}, "created_at"))

	meta := helper.BuildMeta(401, got)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)

	resp, err = app.Test(httptest.NewRequest("GET", "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var er helper.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.False(t, er.Success)
	assert.Equal(t, "VALIDATION_ERROR", er.ErrorCode)
	assert.Equal(t, []string{"wajib diisi"}, er.Errors["id_pelanggan"])
}
