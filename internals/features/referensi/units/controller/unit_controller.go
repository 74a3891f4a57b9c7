package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/referensi/units/dto"
	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	"pdam_pelanggan_backend/internals/features/referensi/units/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type UnitController struct {
	Service  *service.UnitService
	Resolver *service.Resolver
}

func NewUnitController(svc *service.UnitService, resolver *service.Resolver) *UnitController {
	return &UnitController{Service: svc, Resolver: resolver}
}

func parseKind(c *fiber.Ctx) (model.Kind, error) {
	kind, ok := model.ParseKind(c.Params("kind"))
	if !ok {
		return "", helper.ErrNotFound("Jenis referensi %q tidak dikenal", c.Params("kind"))
	}
	return kind, nil
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, helper.ErrValidationField(name, "harus UUID")
	}
	return id, nil
}

// GET /api/public/referensi/:kind
func (ctl *UnitController) ListActive(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	items, err := ctl.Service.ListActive(c.UserContext(), kind)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, kind.Label()+" aktif", items)
}

// GET /api/public/referensi/desa/:id/kecamatan
func (ctl *UnitController) ResolveKecamatan(c *fiber.Ctx) error {
	// id kosong/"-" = desa dikosongkan
	raw := strings.TrimSpace(c.Params("id"))
	desaID := uuid.Nil
	if raw != "" && raw != "-" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.ErrValidationField("id", "harus UUID")
		}
		desaID = id
	}
	res, err := ctl.Resolver.ResolveKecamatan(c.UserContext(), desaID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Kecamatan dari desa", res)
}

// GET /api/a/referensi/:kind?q=&active=&page=&per_page=
func (ctl *UnitController) List(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	f := dto.ListQuery{Q: c.Query("q")}
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.ErrValidationField("active", "harus boolean")
		}
		f.Active = &b
	}
	p := helper.ParseFiber(c, "nama", "asc", helper.AdminOpts)

	items, total, err := ctl.Service.List(c.UserContext(), kind, f, p)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "Daftar "+kind.Label(), items, helper.BuildMeta(total, p))
}

// GET /api/a/referensi/:kind/:id
func (ctl *UnitController) Detail(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	item, err := ctl.Service.GetByID(c.UserContext(), kind, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Detail "+kind.Label(), item)
}

// POST /api/a/referensi/:kind
func (ctl *UnitController) Create(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	var req dto.CreateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.Create(c.UserContext(), sess, kind, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, kind.Label()+" berhasil dibuat", item)
}

// PUT /api/a/referensi/:kind/:id
func (ctl *UnitController) Update(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.Update(c.UserContext(), sess, kind, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, kind.Label()+" berhasil diperbarui", item)
}

// PATCH /api/a/referensi/:kind/:id/toggle
func (ctl *UnitController) ToggleStatus(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	item, err := ctl.Service.ToggleStatus(c.UserContext(), sess, kind, id)
	if err != nil {
		return err
	}
	msg := kind.Label() + " dinonaktifkan"
	if item.IsActive {
		msg = kind.Label() + " diaktifkan"
	}
	return helper.JsonUpdated(c, msg, item)
}

// DELETE /api/a/referensi/:kind/:id
func (ctl *UnitController) Delete(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	kind, err := parseKind(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ctl.Service.Delete(c.UserContext(), sess, kind, id); err != nil {
		return err
	}
	return helper.JsonDeleted(c, kind.Label()+" berhasil dihapus", fiber.Map{"id": id})
}
