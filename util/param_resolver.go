package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolveParams expands {$.path} tokens in every template value with the
// matching jsonpath lookup against data. Unresolvable tokens are left as is.
func ResolveParams(data map[string]any, templates map[string]string) map[string]string {
	out := make(map[string]string, len(templates))
	for k, v := range templates {
		out[k] = ResolveString(data, v)
	}
	return out
}

func ResolveString(data map[string]any, template string) string {
	tokenMap := make(map[string]any)
	for _, token := range tokenPattern.FindAllString(template, -1) {
		tmatch := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(tmatch, "$") {
			continue
		}
		value, err := jsonpath.JsonPathLookup(data, tmatch)
		if err != nil {
			continue
		}
		tokenMap[token] = value
	}
	for t, tv := range tokenMap {
		template = strings.ReplaceAll(template, t, fmt.Sprintf("%v", tv))
	}
	return template
}

func ToAnyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
