package authUtils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry in a 400 validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BindingErrors renders a binding failure as a structured error list.
// Validator errors become per-field entries; anything else (malformed
// JSON, type mismatch) becomes a single generic entry.
func BindingErrors(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: messageFor(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{{Field: "body", Message: "Invalid request body"}}})
}

// ValidationError renders a single hand-rolled field error as the same
// structured list the binding path produces.
func ValidationError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{{Field: field, Message: message}}})
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}
