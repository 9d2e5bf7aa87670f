package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string", "430000001", "430000001"},
		{"string with spaces", "  430000001  ", "430000001"},
		{"float64 from json", float64(430000001), "430000001"},
		{"json number", json.Number("500000001"), "500000001"},
		{"int", 42, "42"},
		{"int64", int64(9000000001), "9000000001"},
		{"nil", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeID(tc.in))
		})
	}
}

func TestNormalizeIDNumericAndStringFormsCollide(t *testing.T) {
	// a registration with a JSON number and a patch with a path string must
	// resolve to the same record key
	assert.Equal(t, NormalizeID("500000001"), NormalizeID(float64(500000001)))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, ValidRole("Student"))
	assert.True(t, ValidRole("Admin"))
	assert.False(t, ValidRole("student"))
	assert.False(t, ValidRole(""))

	assert.True(t, ValidStatus("Warning"))
	assert.False(t, ValidStatus("Banned"))

	assert.True(t, ValidSeverity("error"))
	assert.False(t, ValidSeverity("Error"))
	assert.False(t, ValidSeverity("fatal"))
}
