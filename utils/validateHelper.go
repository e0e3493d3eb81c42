package utils

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

// Validator reports failing fields by their `label` tag, falling back to the
// json name and then the Go field name.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if label := fld.Tag.Get("label"); label != "" {
				return label
			}
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStructLabels returns the label of every failing field in declaration order.
func ValidateStructLabels(s any) ([]string, error) {
	err := Validator().Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	labels := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		labels = append(labels, ve.Field())
	}
	return labels, nil
}
