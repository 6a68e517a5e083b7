package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the envelope shape: type, sender and a non-empty
// recipient list are all required before the relay will route it.
func (e *Envelope) Validate() error {
	return friendly("envelope", validate.Struct(e))
}

// Validate checks the required handshake fields.
func (h *Handshake) Validate() error {
	return friendly("handshake", validate.Struct(h))
}

// Validate checks a share reference before a pull is attempted.
func (r *ShareReference) Validate() error {
	return friendly("share reference", validate.Struct(r))
}

// friendly flattens validator output into one readable line; the relay
// sends these messages verbatim back to the offending connection.
func friendly(subject string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", snake(fe.Field())))
		case "min":
			fields = append(fields, fmt.Sprintf("%s must not be empty", snake(fe.Field())))
		default:
			fields = append(fields, fmt.Sprintf("%s is invalid", snake(fe.Field())))
		}
	}
	return fmt.Errorf("invalid %s: %s", subject, strings.Join(fields, ", "))
}

func snake(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
