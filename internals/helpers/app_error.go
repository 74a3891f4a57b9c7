package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindConflict     ErrorKind = "CONFLICT"
	KindInvalidState ErrorKind = "INVALID_STATE_TRANSITION"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindUpstream     ErrorKind = "UPSTREAM_FAILURE"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
)

// AppError adalah error domain yang dikembalikan service.
// Controller cukup `return err`; ErrorHandler Fiber yang merender.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindConflict, KindInvalidState:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUpstream:
		return fiber.StatusBadGateway
	case KindForbidden:
		return fiber.StatusForbidden
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func newErr(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ErrValidation(format string, args ...any) *AppError {
	return newErr(KindValidation, format, args...)
}

// ErrValidationField: satu field gagal, pesan ikut masuk ke map errors.
func ErrValidationField(field, msg string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: msg,
		Fields:  map[string][]string{field: {msg}},
	}
}

func ErrConflict(format string, args ...any) *AppError {
	return newErr(KindConflict, format, args...)
}

func ErrInvalidState(format string, args ...any) *AppError {
	return newErr(KindInvalidState, format, args...)
}

func ErrNotFound(format string, args ...any) *AppError {
	return newErr(KindNotFound, format, args...)
}

func ErrForbidden(format string, args ...any) *AppError {
	return newErr(KindForbidden, format, args...)
}

func ErrUnauthorized(format string, args ...any) *AppError {
	return newErr(KindUnauthorized, format, args...)
}

// ErrUpstream membungkus kegagalan DB / storage / SMTP. Pesan ke user tetap generik.
func ErrUpstream(err error, format string, args ...any) *AppError {
	e := newErr(KindUpstream, format, args...)
	e.Err = err
	return e
}

func IsKind(err error, kind ErrorKind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}

// AsAppError: error non-domain dianggap kegagalan upstream.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return ErrUpstream(err, "Terjadi gangguan pada layanan, silakan coba lagi")
}

// IsUniqueViolation: SQLSTATE 23505 (pgx), ErrDuplicatedKey (TranslateError), atau pesan driver lain.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}

// DBError memetakan error GORM mentah ke AppError.
func DBError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if strings.TrimSpace(notFoundMsg) == "" {
			notFoundMsg = "Data tidak ditemukan"
		}
		return ErrNotFound("%s", notFoundMsg)
	case IsUniqueViolation(err):
		return ErrConflict("Data duplikat (unique violation)")
	default:
		return ErrUpstream(err, "Gagal mengakses database")
	}
}
