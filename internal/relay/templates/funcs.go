// Package templates provides the functions available to relay message templates.
package templates

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"go.yaml.in/yaml/v3"
)

// StandardFuncs is a map of standard functions that can be used in message templates.
var StandardFuncs = template.FuncMap{
	"toJson": func(v any) string {
		b, _ := json.Marshal(v)
		return string(b)
	},
	"toYaml": func(v any) string {
		b, _ := yaml.Marshal(v)
		return string(b)
	},
	"default": func(def, v string) string {
		return helpers.Coalesce(v, def)
	},
	"replace": func(old, new, s string) string { //nolint:revive // false positive
		return strings.ReplaceAll(s, old, new)
	},
	"truncate": func(n int, s string) string {
		return helpers.Truncate(s, n)
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}
