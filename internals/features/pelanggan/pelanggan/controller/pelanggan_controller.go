package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type PelangganController struct {
	Service *service.PelangganService
}

func NewPelangganController(svc *service.PelangganService) *PelangganController {
	return &PelangganController{Service: svc}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.ErrValidationField("id", "harus UUID")
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, helper.ErrValidationField(key, "harus UUID")
	}
	return &id, nil
}

// ParseListQuery dipakai juga oleh controller laporan (filter yang sama).
func ParseListQuery(c *fiber.Ctx) (dto.ListQuery, error) {
	f := dto.ListQuery{
		Q:               c.Query("q"),
		StatusPelanggan: strings.ToLower(strings.TrimSpace(c.Query("status_pelanggan"))),
		JenisMeter:      strings.ToLower(strings.TrimSpace(c.Query("jenis_meter"))),
	}
	refs := []struct {
		key string
		dst **uuid.UUID
	}{
		{"cabang_id", &f.CabangID},
		{"desa_id", &f.DesaID},
		{"kecamatan_id", &f.KecamatanID},
		{"rayon_id", &f.RayonID},
		{"golongan_id", &f.GolonganID},
		{"kelompok_id", &f.KelompokID},
		{"user_id", &f.UserID},
	}
	for _, r := range refs {
		id, err := queryUUID(c, r.key)
		if err != nil {
			return f, err
		}
		*r.dst = id
	}
	if v := strings.TrimSpace(c.Query("unassigned")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, helper.ErrValidationField("unassigned", "harus boolean")
		}
		f.Unassigned = b
	}
	return f, nil
}

// GET /api/u/pelanggan (user: milik sendiri) & /api/a/pelanggan (admin: semua)
func (ctl *PelangganController) List(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f, err := ParseListQuery(c)
	if err != nil {
		return err
	}
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)

	items, total, err := ctl.Service.List(c.UserContext(), sess, f, p)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "Daftar pelanggan", items, helper.BuildMeta(total, p))
}

// GET /api/u/pelanggan/peta
func (ctl *PelangganController) Markers(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f, err := ParseListQuery(c)
	if err != nil {
		return err
	}
	items, err := ctl.Service.Markers(c.UserContext(), sess, f)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Marker pelanggan", items)
}

// GET /api/u/pelanggan/:id
func (ctl *PelangganController) Detail(c *fiber.Ctx) error {
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
	return helper.JsonOK(c, "Detail pelanggan", item)
}

// POST /api/u/pelanggan: form lama, pemilik = pemanggil
func (ctl *PelangganController) CreateOwn(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	var req dto.PelangganFields
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.CreateForUser(c.UserContext(), sess, sess.UserID, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Pelanggan berhasil dibuat", item)
}

// POST /api/a/pelanggan: admin membuat pelanggan untuk user tertentu
func (ctl *PelangganController) CreateForUser(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	var req dto.CreatePelangganRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	if req.UserID == nil || *req.UserID == uuid.Nil {
		return helper.ErrValidationField("user_id", "wajib diisi")
	}
	item, err := ctl.Service.CreateForUser(c.UserContext(), sess, *req.UserID, req.PelangganFields)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Pelanggan berhasil dibuat", item)
}

// PUT /api/u/pelanggan/:id
func (ctl *PelangganController) Update(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePelangganRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.Update(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Pelanggan berhasil diperbarui", item)
}

// DELETE /api/a/pelanggan/:id  body: {"confirm": true}
func (ctl *PelangganController) Delete(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.ErrValidation("Body tidak valid")
		}
	}
	if err := ctl.Service.Delete(c.UserContext(), sess, id, req.Confirm); err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Pelanggan berhasil dihapus", fiber.Map{"id": id})
}

// POST /api/a/pelanggan/bulk-delete
func (ctl *PelangganController) BulkDelete(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	var req dto.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	res, err := ctl.Service.BulkDelete(c.UserContext(), sess, req.IDs, req.Confirm)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Hapus massal selesai", res)
}

// PATCH /api/a/pelanggan/:id/transfer
func (ctl *PelangganController) Transfer(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	if req.UserID == uuid.Nil {
		return helper.ErrValidationField("user_id", "wajib diisi")
	}
	item, err := ctl.Service.Transfer(c.UserContext(), sess, id, req.UserID)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Pelanggan berhasil dipindahkan", item)
}

// POST /api/a/pelanggan/bulk-assign
// 200 walau sebagian gagal; rincian ada di failed.
func (ctl *PelangganController) BulkAssign(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	var req dto.BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	res, err := ctl.Service.BulkAssign(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Assign massal selesai", res)
}
