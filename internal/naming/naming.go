// Package naming turns spreadsheet headers and user input into MySQL
// identifiers.
package naming

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var turkish = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "c", "Ğ", "g", "İ", "i", "Ö", "o", "Ş", "s", "Ü", "u",
	" ", "_",
)

// Clean lowercases name, transliterates Turkish and accented letters, turns
// spaces into underscores and drops anything that is not a letter, digit or
// underscore. A leading digit is prefixed with an underscore.
func Clean(name string) string {
	// Replace before lowercasing: strings.ToLower maps İ to "i̇".
	name = strings.ToLower(turkish.Replace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, name); err == nil {
		name = stripped
	}

	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && unicode.IsDigit([]rune(out)[0]) {
		out = "_" + out
	}
	return out
}

// Uniquer hands out column names that do not collide with each other or with
// the generated primary key column.
type Uniquer struct {
	table string
	used  map[string]struct{}
}

func NewUniquer(table string) *Uniquer {
	return &Uniquer{
		table: table,
		used:  map[string]struct{}{},
	}
}

// Name cleans header and makes it unique. A header that cleans to "id" is
// renamed to id_<table> since the script adds its own id column.
func (u *Uniquer) Name(header string) string {
	name := Clean(header)
	if name == "id" {
		name = "id_" + u.table
	}

	candidate := name
	for k := 1; ; k++ {
		if _, taken := u.used[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s_%d", name, k)
	}
	u.used[candidate] = struct{}{}
	return candidate
}
