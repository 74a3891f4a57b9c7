package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/users/staff/dto"
	"pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type StaffController struct {
	Service *service.StaffService
}

func NewStaffController(svc *service.StaffService) *StaffController {
	return &StaffController{Service: svc}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.ErrValidationField("id", "harus UUID")
	}
	return id, nil
}

// GET /api/u/me: profil staf dari sesi
func (ctl *StaffController) Me(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	profile, err := ctl.Service.Get(c.UserContext(), sess, sess.UserID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Profil pengguna", fiber.Map{
		"session": sess,
		"profile": profile,
	})
}

// GET /api/a/users?q=&role=&active=
func (ctl *StaffController) List(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f := dto.ListQuery{
		Q:    c.Query("q"),
		Role: strings.ToLower(strings.TrimSpace(c.Query("role"))),
	}
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.ErrValidationField("active", "harus boolean")
		}
		f.Active = &b
	}
	p := helper.ParseFiber(c, "created_at", "desc", helper.AdminOpts)

	items, total, err := ctl.Service.List(c.UserContext(), sess, f, p)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "Daftar user", items, helper.BuildMeta(total, p))
}

// GET /api/a/users/:id
func (ctl *StaffController) Detail(c *fiber.Ctx) error {
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
	return helper.JsonOK(c, "Detail user", item)
}

// POST /api/a/users
func (ctl *StaffController) Create(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.Create(c.UserContext(), sess, req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "User berhasil dibuat", item)
}

// PUT /api/a/users/:id
func (ctl *StaffController) Update(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.ErrValidation("Body tidak valid")
	}
	item, err := ctl.Service.Update(c.UserContext(), sess, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "User berhasil diperbarui", item)
}

// PATCH /api/a/users/:id/toggle
func (ctl *StaffController) ToggleActive(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, err := ctl.Service.ToggleActive(c.UserContext(), sess, id)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Status user diperbarui", item)
}

// DELETE /api/a/users/:id
func (ctl *StaffController) Delete(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := ctl.Service.Delete(c.UserContext(), sess, id); err != nil {
		return err
	}
	return helper.JsonDeleted(c, "User berhasil dihapus", fiber.Map{"id": id})
}
