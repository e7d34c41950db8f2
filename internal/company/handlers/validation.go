package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeBody reads a JSON request body into a new T. A missing or null body
// yields a bad request naming dtoName.
func decodeBody[T any](r *http.Request, dtoName string) (*T, error) {
	var body *T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, e.BadRequest("%s object is null", dtoName)
		}
		return nil, e.BadRequest("The request body is not valid JSON: %v", err)
	}
	if body == nil {
		return nil, e.BadRequest("%s object is null", dtoName)
	}
	return body, nil
}

// validateStruct checks the validate tags of v and reports every failing
// field as an invalid input error keyed by its JSON path.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, found := strings.Cut(key, "."); found {
			key = rest
		}
		fields[key] = append(fields[key], validationMessage(fe))
	}
	return e.Invalid(fields)
}

func validationMessage(fe validator.FieldError) string {
	field := fe.StructField()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required field.", field)
	case "max":
		return fmt.Sprintf("Maximum length for the %s is %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s is a required field and it can't be lower than %s.", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s is not a valid e-mail address.", field)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
