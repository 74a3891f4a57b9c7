package helper

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator tunggal; nama field diambil dari tag json.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct → nil atau AppError{VALIDATION_ERROR} dengan detail per field.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ErrValidation("Input tidak valid")
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return &AppError{Kind: KindValidation, Message: "Validasi gagal", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "email":
		return "format email tidak valid"
	case "oneof":
		return "harus salah satu dari: " + fe.Param()
	case "min":
		return "minimal " + fe.Param()
	case "max":
		return "maksimal " + fe.Param()
	case "gte":
		return "minimal " + fe.Param()
	case "lte":
		return "maksimal " + fe.Param()
	case "uuid", "uuid4":
		return "harus UUID"
	case "latitude":
		return "latitude tidak valid"
	case "longitude":
		return "longitude tidak valid"
	case "url":
		return "URL tidak valid"
	default:
		return fe.Tag()
	}
}
