package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ozlabs/forge/common"
)

var validate = validator.New()

// Bind decodes and validates the JSON request body into dest,
// returning a typed validation error suitable for the envelope.
func Bind[T any](c *gin.Context, dest *T) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return common.NewValidationError(map[string][]string{
			"body": {"invalid json: " + err.Error()},
		})
	}

	if err := validate.Struct(dest); err != nil {
		return common.NewValidationError(FormatValidationErrors(err))
	}

	return nil
}

func FormatValidationErrors(err error) map[string][]string {
	fields := map[string][]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			fields[e.Field()] = append(fields[e.Field()], "failed "+e.Tag())
		}
	}
	return fields
}
