package theater

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const maxNameLength = 120

// ValidationError lists the offending fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%v: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Validate checks the field constraints of a theater independently of who
// submits it.
func (in Input) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.By(notBlank),
			validation.RuneLength(0, maxNameLength),
		),
		validation.Field(&in.Address, validation.By(notBlank)),
		validation.Field(&in.SeatCount, validation.By(positive)),
	)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(errs))}
	for field, fieldErr := range errs {
		out.Fields[field] = fieldErr.Error()
	}
	return out
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func positive(value interface{}) error {
	n, _ := value.(int)
	if n <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}
