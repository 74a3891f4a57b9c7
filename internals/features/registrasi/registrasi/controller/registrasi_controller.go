package controller

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/dto"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

const maxDocumentSize = 5 << 20

type RegistrasiController struct {
	Service *service.RegistrasiService
}

func NewRegistrasiController(svc *service.RegistrasiService) *RegistrasiController {
	return &RegistrasiController{Service: svc}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.ErrValidationField("id", "harus UUID")
	}
	return id, nil
}

func formPtr(c *fiber.Ctx, key string) *string {
	return helper.StrPtr(c.FormValue(key))
}

func formFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, helper.ErrValidationField(key, "harus angka")
	}
	return &v, nil
}

func formFile(c *fiber.Ctx, key string) (helper.Upload, error) {
	fh, err := c.FormFile(key)
	if err != nil {
		// tidak dikirim: boleh diganti URL
		return helper.Upload{}, nil
	}
	if fh.Size > maxDocumentSize {
		return helper.Upload{}, helper.ErrValidationField(key, "maksimal 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return helper.Upload{}, helper.ErrValidationField(key, "file tidak bisa dibaca")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return helper.Upload{}, helper.ErrValidationField(key, "file tidak bisa dibaca")
	}
	return helper.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// parseSubmit: JSON (dokumen berupa URL) atau multipart (foto_rumah, foto_ktp, foto_kk).
func parseSubmit(c *fiber.Ctx) (dto.SubmitRequest, dto.Documents, error) {
	var (
		req  dto.SubmitRequest
		docs dto.Documents
		err  error
	)
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&req); err != nil {
			return req, docs, helper.ErrValidation("Body tidak valid")
		}
		return req, docs, nil
	}

	req = dto.SubmitRequest{
		NamaPelanggan:     c.FormValue("nama_pelanggan"),
		Email:             formPtr(c, "email"),
		NoTelpon:          c.FormValue("no_telpon"),
		Alamat:            c.FormValue("alamat"),
		DesaID:            c.FormValue("desa_id"),
		CatatanRegistrasi: formPtr(c, "catatan_registrasi"),
		FotoRumahURL:      c.FormValue("foto_rumah_url"),
		FotoKTPURL:        c.FormValue("foto_ktp_url"),
		FotoKKURL:         c.FormValue("foto_kk_url"),
	}
	if req.Latitude, err = formFloat(c, "latitude"); err != nil {
		return req, docs, err
	}
	if req.Longitude, err = formFloat(c, "longitude"); err != nil {
		return req, docs, err
	}
	if raw := strings.TrimSpace(c.FormValue("jumlah_jiwa")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, docs, helper.ErrValidationField("jumlah_jiwa", "harus bilangan bulat")
		}
		req.JumlahJiwa = &n
	}
	if docs.Rumah, err = formFile(c, "foto_rumah"); err != nil {
		return req, docs, err
	}
	if docs.KTP, err = formFile(c, "foto_ktp"); err != nil {
		return req, docs, err
	}
	if docs.KK, err = formFile(c, "foto_kk"); err != nil {
		return req, docs, err
	}
	return req, docs, nil
}

// POST /api/public/registrasi: pendaftaran mandiri
func (ctl *RegistrasiController) SubmitPublic(c *fiber.Ctx) error {
	req, docs, err := parseSubmit(c)
	if err != nil {
		return err
	}
	res, err := ctl.Service.Submit(c.UserContext(), nil, req, docs)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Registrasi berhasil dikirim, simpan nomor registrasi Anda", res)
}

// POST /api/u/registrasi: staf mendaftarkan atas nama pelanggan
func (ctl *RegistrasiController) SubmitStaff(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	req, docs, err := parseSubmit(c)
	if err != nil {
		return err
	}
	uid := sess.UserID
	res, err := ctl.Service.Submit(c.UserContext(), &uid, req, docs)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Registrasi berhasil dikirim", res)
}

// GET /api/public/registrasi/:no_registrasi
func (ctl *RegistrasiController) Track(c *fiber.Ctx) error {
	res, err := ctl.Service.Track(c.UserContext(), c.Params("no_registrasi"))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Status registrasi", res)
}

// GET /api/u/registrasi (staf: milik sendiri) & /api/a/registrasi (admin: semua)
func (ctl *RegistrasiController) List(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)
	f := dto.ListQuery{Status: c.Query("status"), Q: c.Query("q")}

	items, total, err := ctl.Service.List(c.UserContext(), sess, f, p)
	if err != nil {
		return err
	}
	counts, err := ctl.Service.Counts(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return helper.JsonListEx(c, "Daftar registrasi", items, helper.BuildMeta(total, p), fiber.Map{"counts": counts})
}

// GET /api/u/registrasi/:id
func (ctl *RegistrasiController) Detail(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, err := ctl.Service.Get(c.UserContext(), sess, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Detail registrasi", item)
}

// POST /api/a/registrasi/:id/approve
func (ctl *RegistrasiController) Approve(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	res, err := ctl.Service.Approve(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Registrasi disetujui, pelanggan dibuat", res)
}

// POST /api/a/registrasi/:id/reject
func (ctl *RegistrasiController) Reject(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	res, err := ctl.Service.Reject(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Registrasi ditolak", res)
}
