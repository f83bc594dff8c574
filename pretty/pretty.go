// Package pretty renders matcher names and values as English phrases for
// descriptions and failure messages.
package pretty

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxLength is the longest inspected value rendered in full.
const DefaultMaxLength = 200

const ellipsis = "..."

// Formatter turns names and values into phrase fragments.
// A zero MaxLength disables truncation.
type Formatter struct {
	MaxLength int
}

// Default is the formatter used when none is configured.
var Default = New(DefaultMaxLength)

// New returns a formatter that elides inspected values longer than maxLength.
func New(maxLength int) *Formatter {
	return &Formatter{MaxLength: maxLength}
}

var spewConfig = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// NameToSentence splits a matcher name into words. Underscores become spaces
// and are otherwise kept verbatim ("have_HTTP_status" -> "have HTTP status");
// a CamelCase name is split at its humps and lower-cased, keeping acronyms
// ("BeHTTPSuccess" -> "be HTTP success").
func (f *Formatter) NameToSentence(name string) string {
	if strings.ContainsAny(name, "_ ") {
		return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	}

	lower := cases.Lower(language.Und)
	words := splitCamel(name)
	for i, w := range words {
		if !isAcronym(w) {
			words[i] = lower.String(w)
		}
	}
	return strings.Join(words, " ")
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev))
		// end of an acronym: "HTTPStatus" splits before the 'S'
		if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}

func isAcronym(w string) bool {
	if len([]rune(w)) < 2 {
		return false
	}
	for _, r := range w {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// ToSentence renders items as a trailing clause with a leading space:
// "" for none, " a" for one, " a and b" for two, " a, b, and c" otherwise.
func (f *Formatter) ToSentence(items []any) string {
	words := make([]string, len(items))
	for i, item := range items {
		words[i] = f.Inspect(item)
	}

	switch len(words) {
	case 0:
		return ""
	case 1:
		return " " + words[0]
	case 2:
		return " " + words[0] + " and " + words[1]
	}
	return " " + strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1]
}

// Inspect renders a value the way it would be written in a failure message.
func (f *Formatter) Inspect(v any) string {
	return f.truncate(inspect(v))
}

func inspect(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(val)
	case error:
		return fmt.Sprintf("#<%T: %s>", val, val.Error())
	case fmt.Stringer:
		return val.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return fmt.Sprintf("#<%s>", rv.Type())
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
	}
	return spewConfig.Sprintf("%+v", v)
}

func (f *Formatter) truncate(s string) string {
	if f == nil || f.MaxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= f.MaxLength {
		return s
	}
	keep := f.MaxLength - len(ellipsis)
	if keep < 2 {
		return string(runes[:f.MaxLength])
	}
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
