// Package tree holds the gjson helpers shared by the embedded and GraphQL
// parsers. Every accessor degrades to "absent" on a missing or wrong-typed
// value; nothing here returns an error.
package tree

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// MaxDepth bounds every recursive search.
const MaxDepth = 20

// DefaultCurrency is reported when a payload carries no currency.
const DefaultCurrency = "$"

// Sanitize replaces invalid UTF-8 so downstream string handling is safe.
func Sanitize(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	return []byte(strings.ToValidUTF8(string(raw), "�"))
}

// Str returns the first path holding a non-empty string.
func Str(r gjson.Result, paths ...string) (string, bool) {
	for _, p := range paths {
		v := r.Get(p)
		if v.Type == gjson.String && v.Str != "" {
			return v.Str, true
		}
	}
	return "", false
}

// StrOr is Str with a fallback.
func StrOr(r gjson.Result, fallback string, paths ...string) string {
	if s, ok := Str(r, paths...); ok {
		return s
	}
	return fallback
}

// StrPtr is Str returning nil when absent.
func StrPtr(r gjson.Result, paths ...string) *string {
	if s, ok := Str(r, paths...); ok {
		return &s
	}
	return nil
}

// Float returns the first path holding a finite number.
func Float(r gjson.Result, paths ...string) (float64, bool) {
	for _, p := range paths {
		v := r.Get(p)
		if v.Type == gjson.Number && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0) {
			return v.Num, true
		}
	}
	return 0, false
}

// FloatPtr is Float returning nil when absent.
func FloatPtr(r gjson.Result, paths ...string) *float64 {
	if f, ok := Float(r, paths...); ok {
		return &f
	}
	return nil
}

// Count returns the first path holding a non-negative integer.
func Count(r gjson.Result, paths ...string) (int, bool) {
	for _, p := range paths {
		v := r.Get(p)
		if v.Type != gjson.Number {
			continue
		}
		if n, err := strconv.ParseUint(v.Raw, 10, 31); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

// CountPtr is Count returning nil when absent.
func CountPtr(r gjson.Result, paths ...string) *int {
	if n, ok := Count(r, paths...); ok {
		return &n
	}
	return nil
}

// Bool returns the first path holding a JSON boolean, or nil.
func Bool(r gjson.Result, paths ...string) *bool {
	for _, p := range paths {
		v := r.Get(p)
		if v.Type == gjson.True || v.Type == gjson.False {
			b := v.Bool()
			return &b
		}
	}
	return nil
}

// ID returns the first path holding a non-empty string or a non-negative
// integer, rendered as a string.
func ID(r gjson.Result, paths ...string) (string, bool) {
	for _, p := range paths {
		v := r.Get(p)
		switch v.Type {
		case gjson.String:
			if v.Str != "" {
				return v.Str, true
			}
		case gjson.Number:
			if n, err := strconv.ParseUint(v.Raw, 10, 64); err == nil {
				return strconv.FormatUint(n, 10), true
			}
		}
	}
	return "", false
}

// IDPtr is ID returning nil when absent.
func IDPtr(r gjson.Result, paths ...string) *string {
	if s, ok := ID(r, paths...); ok {
		return &s
	}
	return nil
}

// Strings collects the string elements of the array at path.
func Strings(r gjson.Result, path string) []string {
	arr := r.Get(path)
	if !arr.IsArray() {
		return nil
	}
	var out []string
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String && v.Str != "" {
			out = append(out, v.Str)
		}
		return true
	})
	return out
}

// First returns the first path that exists.
func First(r gjson.Result, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// Array returns the elements at path, or nil when it is not an array.
func Array(r gjson.Result, path string) []gjson.Result {
	v := r.Get(path)
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

// Find performs a depth-first search for the first object or array that
// satisfies match, descending at most depth levels.
func Find(r gjson.Result, depth int, match func(gjson.Result) bool) (gjson.Result, bool) {
	if depth <= 0 || (!r.IsObject() && !r.IsArray()) {
		return gjson.Result{}, false
	}
	if match(r) {
		return r, true
	}
	var found gjson.Result
	ok := false
	r.ForEach(func(_, v gjson.Result) bool {
		found, ok = Find(v, depth-1, match)
		return !ok
	})
	return found, ok
}

// FindKey returns the value of the first occurrence of key at any depth.
func FindKey(r gjson.Result, depth int, key string) (gjson.Result, bool) {
	holder, ok := Find(r, depth, func(v gjson.Result) bool {
		return v.IsObject() && v.Get(gjson.Escape(key)).Exists()
	})
	if !ok {
		return gjson.Result{}, false
	}
	return holder.Get(gjson.Escape(key)), true
}

// ParsePrice extracts a number from a display price such as "€ 1,254.50"
// by keeping only digits and dots.
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CurrencySymbol returns the trimmed prefix before the first digit, or
// DefaultCurrency when there is none.
func CurrencySymbol(price string) string {
	i := strings.IndexFunc(price, func(c rune) bool { return c >= '0' && c <= '9' })
	if i < 0 {
		i = len(price)
	}
	if sym := strings.TrimSpace(price[:i]); sym != "" {
		return sym
	}
	return DefaultCurrency
}

// RatingLocalized splits "4.98 (126)" into 4.98 and 126. Strings such as
// "New" yield no rating and a zero count.
func RatingLocalized(s string) (*float64, int) {
	if s == "" {
		return nil, 0
	}
	var rating *float64
	head, _, _ := strings.Cut(s, "(")
	if fields := strings.Fields(head); len(fields) > 0 {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64); err == nil {
			rating = &f
		}
	}
	count := 0
	if _, tail, ok := strings.Cut(s, "("); ok {
		tail = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tail), ")"))
		if n, err := strconv.ParseUint(strings.ReplaceAll(tail, ",", ""), 10, 31); err == nil {
			count = int(n)
		}
	}
	return rating, count
}

// NiobeID decodes a base64 "DemandStayListing:{id}" identifier.
func NiobeID(encoded string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// StayListingID encodes id the way the PDP query expects it.
func StayListingID(id string) string {
	return base64.StdEncoding.EncodeToString([]byte("StayListing:" + id))
}

// DemandStayListingID is the demand-side form of StayListingID.
func DemandStayListingID(id string) string {
	return base64.StdEncoding.EncodeToString([]byte("DemandStayListing:" + id))
}

var lineBreaks = strings.NewReplacer("<br />", "\n", "<br/>", "\n", "<br>", "\n")

// StripTags turns an HTML snippet into plain text. Line breaks survive as
// newlines and entities are decoded.
func StripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(lineBreaks.Replace(html)))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(doc.Text())
}

// ListingURL returns the canonical listing page URL.
func ListingURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/rooms/" + id
}

// Resolve makes ref absolute against base. Unparseable input is returned
// unchanged.
func Resolve(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// LeadingCount returns the first whitespace-separated word of s that is a
// whole number, as in "2 bedrooms" or "Sleeps 4".
func LeadingCount(s string) (int, bool) {
	for _, w := range strings.Fields(s) {
		if n, err := strconv.ParseUint(w, 10, 31); err == nil {
			return int(n), true
		}
	}
	return 0, false
}
