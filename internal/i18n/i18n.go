// Package i18n provides the translated day names and slot labels used in
// rendered forecast messages. English strings are their own keys, so the
// English catalog is the identity and only Swahili carries entries.
package i18n

import "strings"

var catalogs = map[string]map[string]string{
	"sw": {
		"Monday":    "Jumatatu",
		"Tuesday":   "Jumanne",
		"Wednesday": "Jumatano",
		"Thursday":  "Alhamisi",
		"Friday":    "Ijumaa",
		"Saturday":  "Jumamosi",
		"Sunday":    "Jumapili",
		"Afternoon": "Mchana",
		"Night":     "Usiku",
	},
}

// T returns the translation of key for the given language code, falling back
// to the key itself for unknown languages or missing entries.
func T(lang, key string) string {
	if c, ok := catalogs[strings.TrimSpace(lang)]; ok {
		if v, ok := c[key]; ok {
			return v
		}
	}
	return key
}
