package internal

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/bindx/core/errors"
)

var markerValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("id", validID); err != nil {
		panic(err)
	}
	return v
})

// validID accepts registry ids: non-empty, no whitespace, no commas.
func validID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && !strings.ContainsAny(s, " \t\r\n,")
}

// validateMarkers checks option words, delimiters and converter ids.
func validateMarkers(m *Markers) error {
	err := markerValidator().Struct(m)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.CodeInternal, "internal.validateMarkers", err)
	}

	fe := verrs[0]
	return errors.Build(errors.CodeMarkerCompatibility).
		WithOp("internal.validateMarkers").
		WithMsg(describe(fe)).
		WithErr(err).
		Err()
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Markers.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "oneof":
		return fmt.Sprintf("unknown option %q", fe.Value())
	case "id":
		return fmt.Sprintf("malformed converter id %q in %s", fe.Value(), field)
	default:
		return fmt.Sprintf("%s fails %s", field, fe.Tag())
	}
}
