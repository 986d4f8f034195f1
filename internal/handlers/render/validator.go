package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/pacta/internal/models"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("amount", validateAmount)
	validate.RegisterTagNameFunc(useJSONTagNames)

	// Nil uuid counts as missing value for 'required'
	validate.RegisterCustomTypeFunc(uuidValue, uuid.UUID{})
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func uuidValue(field reflect.Value) any {
	if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
		return id.String()
	}
	return ""
}

func validateAmount(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && models.IsValidAmount(d)
}
