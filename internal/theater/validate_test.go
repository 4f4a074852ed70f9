package theater

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputValidate(t *testing.T) {
	cases := []struct {
		name   string
		in     Input
		fields []string
	}{
		{name: "valid", in: Input{Name: "Regal", Address: "456 Elm St", SeatCount: 1}},
		{name: "name at limit", in: Input{Name: strings.Repeat("n", 120), Address: "a", SeatCount: 1}},
		{name: "name too long", in: Input{Name: strings.Repeat("n", 121), Address: "a", SeatCount: 1}, fields: []string{"name"}},
		{name: "blank name", in: Input{Name: "   ", Address: "a", SeatCount: 1}, fields: []string{"name"}},
		{name: "blank address", in: Input{Name: "n", Address: "", SeatCount: 1}, fields: []string{"address"}},
		{name: "zero seats", in: Input{Name: "n", Address: "a", SeatCount: 0}, fields: []string{"seatCount"}},
		{name: "negative seats", in: Input{Name: "n", Address: "a", SeatCount: -5}, fields: []string{"seatCount"}},
		{name: "everything", in: Input{}, fields: []string{"name", "address", "seatCount"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if len(tc.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidInput)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}
