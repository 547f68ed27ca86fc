package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// themeVarPrefix is the naming convention for projected style variables.
const themeVarPrefix = "--theme-"

// VarName maps a theme slot name to its style variable. The mapping is the
// identity under the fixed prefix, so it is deterministic and round-trips:
// the same slot always yields the same variable.
func VarName(slot string) string {
	return themeVarPrefix + slot
}

// CSSVars projects every theme entry into a style-variable declaration
// block, slots in sorted order for stable output. The result is scoped to
// the page being rendered, never to process-wide state, so rendering two
// stores side by side cannot cross-contaminate.
func CSSVars(theme map[string]string) template.CSS {
	slots := make([]string, 0, len(theme))
	for slot := range theme {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	var b strings.Builder
	for _, slot := range slots {
		fmt.Fprintf(&b, "%s: %s;\n", VarName(slot), sanitizeColor(theme[slot]))
	}
	return template.CSS(b.String())
}

// sanitizeColor keeps theme values from smuggling declarations into the
// style block. Anything with structural CSS characters is dropped.
func sanitizeColor(v string) string {
	if strings.ContainsAny(v, ";{}<>") {
		return "inherit"
	}
	return v
}
