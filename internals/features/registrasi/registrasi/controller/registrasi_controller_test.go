package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/controller"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/route"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	"pdam_pelanggan_backend/internals/testutil"
)

type memStorage struct{}

func (memStorage) Upload(_ context.Context, folder string, up helper.Upload) (string, error) {
	return "https://files.test/" + folder + "/" + up.Filename, nil
}
func (memStorage) Delete(context.Context, string) error { return nil }

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
	Errors    map[string][]string
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func withSession(s helperAuth.Session) fiber.Handler {
	return func(c *fiber.Ctx) error {
		helperAuth.SetSession(c, s)
		return c.Next()
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegistrasiHTTPFlow(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewRegistrasiService(db, nil, memStorage{}, nil, zap.NewNop())
	ctl := controller.NewRegistrasiController(svc)

	app := fiber.New(fiber.Config{ErrorHandler: helper.NewErrorHandler(zap.NewNop())})
	route.RegistrasiPublicRoutes(app.Group("/api/public"), ctl)
	route.RegistrasiAdminRoutes(app.Group("/api/a", withSession(fx.AdminSession())), ctl)
	route.RegistrasiAdminRoutes(app.Group("/api/staff-as-admin", withSession(fx.StaffSession())), ctl)

	// 1. submit multipart dengan tiga file
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"nama_pelanggan": "Asep",
		"no_telpon":      "0812",
		"alamat":         "Kp. Sukagalih",
		"latitude":       "-7.2278",
		"longitude":      "107.9087",
		"desa_id":        fx.Desa.ID.String(),
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range []string{"foto_rumah", "foto_ktp", "foto_kk"} {
		fw, err := mw.CreateFormFile(name, name+".pdf")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("%PDF-1.4"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/public/registrasi", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	env := decode(t, resp)
	var sub struct {
		ID           string `json:"id"`
		NoRegistrasi string `json:"no_registrasi"`
		KecamatanID  string `json:"kecamatan_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.Equal(t, fx.Kecamatan.ID.String(), sub.KecamatanID)

	// 2. tracking publik
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/public/registrasi/"+sub.NoRegistrasi, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// 3. staf tidak boleh approve
	approve := map[string]any{"id_pelanggan": "P0099", "jenis_meter": "bisa di layani", "owner_user_id": fx.Staff.ID}
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/staff-as-admin/registrasi/"+sub.ID+"/approve", approve), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// 4. reject tanpa alasan → 422
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/a/registrasi/"+sub.ID+"/reject", map[string]string{"rejected_reason": ""}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	env = decode(t, resp)
	assert.Equal(t, string(helper.KindValidation), env.ErrorCode)

	// 5. approve
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/a/registrasi/"+sub.ID+"/approve", approve), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// 6. approve ulang → 409 invalid state
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/a/registrasi/"+sub.ID+"/approve", approve), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	env = decode(t, resp)
	assert.Equal(t, string(helper.KindInvalidState), env.ErrorCode)

	// 7. list admin menyertakan counts
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/a/registrasi?status=approved", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var list struct {
		Data     []map[string]any `json:"data"`
		Includes struct {
			Counts map[string]int `json:"counts"`
		} `json:"includes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Includes.Counts["approved"])
	assert.Equal(t, 1, list.Includes.Counts["total"])
}

func TestSubmitJSONMissingDocuments(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewRegistrasiService(db, nil, memStorage{}, nil, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: helper.NewErrorHandler(zap.NewNop())})
	route.RegistrasiPublicRoutes(app.Group("/api/public"), controller.NewRegistrasiController(svc))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/public/registrasi", map[string]any{
		"nama_pelanggan": "Asep",
		"no_telpon":      "0812",
		"alamat":         "Kp. Sukagalih",
		"latitude":       -7.2278,
		"longitude":      107.9087,
		"desa_id":        fx.Desa.ID,
		"foto_rumah_url": "https://files.test/rumah.webp",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	env := decode(t, resp)
	assert.Contains(t, env.Errors, "foto_ktp")
	assert.Contains(t, env.Errors, "foto_kk")
}
