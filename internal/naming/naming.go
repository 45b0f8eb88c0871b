// Package naming provides the string shaping used when deriving catalogs:
// operation IDs from method+path pairs and component names from free-form
// schema titles.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OperationID derives a camelCase operation ID from an HTTP method and a
// URI template, for operations that declare none of their own.
// Example: ("GET", "/pet/{petId}") -> "getPetPetId"
func OperationID(method, path string) string {
	path = strings.NewReplacer("{", "", "}", "").Replace(path)
	return toCamelCase(strings.ToLower(method) + "_" + path)
}

// ComponentName renders a free-form schema title as a component name.
// Example: "pet order" -> "PetOrder"
func ComponentName(title string) string {
	// cases.Title handles Unicode title casing (strings.Title is deprecated)
	titled := cases.Title(language.English).String(title)
	var result strings.Builder
	for _, r := range titled {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// toPascalCase capitalizes after separators (underscore, hyphen, dot,
// slash) and drops them.
// Example: "user_profile" -> "UserProfile"
func toPascalCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	capitalizeNext := true

	for _, r := range s {
		if r == '_' || r == '-' || r == '.' || r == '/' {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// toCamelCase is toPascalCase with a lowercase first letter.
// Example: "user_profile" -> "userProfile"
func toCamelCase(s string) string {
	pascal := toPascalCase(s)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
