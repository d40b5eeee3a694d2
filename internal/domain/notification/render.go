package notification

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Renderer substitutes {variable} placeholders into template text, applying
// locale-aware formatting per variable format tag. Rendering is pure and
// deterministic: the same inputs always produce the same bytes, and
// placeholders without a matching variable are left verbatim so partial
// template data never blocks delivery of the parts that can render.
type Renderer struct {
	locale       language.Tag
	currencyUnit string
}

// NewRenderer creates a renderer for the given BCP 47 locale and currency
// unit suffix. An unparseable locale falls back to the undetermined tag,
// which groups digits Western-style.
func NewRenderer(locale, currencyUnit string) *Renderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Renderer{locale: tag, currencyUnit: currencyUnit}
}

// WithLocale returns a copy of the renderer using the given locale, keeping
// the configured one when the argument is empty or unparseable. Used to honor
// a recipient's preferred language per request.
func (r *Renderer) WithLocale(locale string) *Renderer {
	if locale == "" {
		return r
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return r
	}
	return &Renderer{locale: tag, currencyUnit: r.currencyUnit}
}

// Render replaces every literal {key} occurrence in text with the formatted
// value of the matching variable. Repeated keys in the template and repeated
// calls with the same inputs are safe.
func (r *Renderer) Render(text string, variables []TemplateVariable) string {
	for _, v := range variables {
		if v.Key == "" {
			continue
		}
		text = strings.ReplaceAll(text, "{"+v.Key+"}", r.formatValue(v))
	}
	return text
}

// formatValue renders one variable value according to its format tag.
func (r *Renderer) formatValue(v TemplateVariable) string {
	switch v.Format {
	case FormatCurrency:
		return r.formatNumber(v.Value) + " " + r.currencyUnit
	case FormatNumber:
		return r.formatNumber(v.Value)
	case FormatDate:
		if t, ok := toTime(v.Value); ok {
			return t.Format("2006-01-02")
		}
		return plainString(v.Value)
	case FormatTime:
		if t, ok := toTime(v.Value); ok {
			return t.Format("15:04")
		}
		return plainString(v.Value)
	default:
		return plainString(v.Value)
	}
}

// formatNumber applies locale digit grouping. Fractional values keep two
// decimals; anything non-numeric falls back to its plain string form.
func (r *Renderer) formatNumber(value any) string {
	f, ok := toFloat(value)
	if !ok {
		return plainString(value)
	}
	p := message.NewPrinter(r.locale)
	if f == math.Trunc(f) {
		return p.Sprintf("%d", int64(f))
	}
	return p.Sprintf("%.2f", f)
}

// toFloat coerces string and JSON number representations to float64.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// toTime interprets a variable value as a timestamp: RFC 3339, a bare date,
// a bare clock time, or Unix seconds.
func toTime(value any) (time.Time, bool) {
	switch t := value.(type) {
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "15:04"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case int:
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

// plainString is the no-format rendering of a value. Integral JSON numbers
// print without a decimal point.
func plainString(value any) string {
	switch s := value.(type) {
	case string:
		return s
	case float64:
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
