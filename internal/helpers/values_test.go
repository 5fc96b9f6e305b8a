package helpers_test

import (
	"testing"
	"unicode/utf8"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	testCases := []struct {
		Name  string
		Input any
	}{
		{
			Name:  "nil",
			Input: nil,
		},
		{
			Name:  "string",
			Input: "v",
		},
		{
			Name:  "int",
			Input: 1,
		},
		{
			Name:  "map",
			Input: map[string]string{"k": "v"},
		},
		{
			Name:  "nil_pointer",
			Input: (*string)(nil),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Input == nil {
				assert.Nil(t, helpers.Ptr(tc.Input))
			} else {
				assert.Equal(t, &tc.Input, helpers.Ptr(tc.Input))
			}
		})
	}
}

func TestString(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    *string
		Expected string
	}{
		{
			Name:     "nil_string",
			Input:    nil,
			Expected: "",
		},
		{
			Name:     "empty_string",
			Input:    new(string),
			Expected: "",
		},
		{
			Name:     "value",
			Input:    helpers.Ptr("SM123"),
			Expected: "SM123",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, helpers.String(tc.Input))
		})
	}
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", helpers.Coalesce("", "b", "c"))
	assert.Equal(t, "", helpers.Coalesce("", ""))
	assert.Equal(t, "", helpers.Coalesce())
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    string
		Limit    int
		Expected string
	}{
		{
			Name:     "short",
			Input:    "ok",
			Limit:    10,
			Expected: "ok",
		},
		{
			Name:     "exact",
			Input:    "0123456789",
			Limit:    10,
			Expected: "0123456789",
		},
		{
			Name:     "long",
			Input:    "0123456789abc",
			Limit:    10,
			Expected: "0123456...",
		},
		{
			Name:     "tiny_limit",
			Input:    "0123456789",
			Limit:    2,
			Expected: "01",
		},
		{
			Name:     "multibyte_backs_off_to_rune_start",
			Input:    "日本語テキスト",
			Limit:    8,
			Expected: "日...",
		},
		{
			Name:     "multibyte_tiny_limit",
			Input:    "日本語",
			Limit:    2,
			Expected: "",
		},
		{
			Name:     "zero_limit",
			Input:    "abc",
			Limit:    0,
			Expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			out := helpers.Truncate(tc.Input, tc.Limit)
			assert.Equal(t, tc.Expected, out)
			assert.True(t, utf8.ValidString(out))
		})
	}
}
