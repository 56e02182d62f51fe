package http

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kyodo/backend/internal/common/entityid"
	commonerrors "github.com/kyodo/backend/internal/common/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("maxbytes", maxBytes)
	})
	return validate
}

// maxBytes bounds a string by its encoded length rather than its rune count,
// which is what bcrypt limits.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// ValidateStruct returns a field -> failed rule map, or nil when v is valid.
func ValidateStruct(v any) map[string]any {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]any{"payload": "invalid"}
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// ParseID parses a path or body identifier, writing a 400 on failure.
func ParseID[K any](w http.ResponseWriter, r *http.Request, field, raw string) (entityid.ID[K], bool) {
	id, err := entityid.Parse[K](raw)
	if err != nil {
		WriteDomainError(w, r, commonerrors.ErrInvalidID, map[string]any{field: "uuid"})
		return entityid.ID[K]{}, false
	}
	return id, true
}
