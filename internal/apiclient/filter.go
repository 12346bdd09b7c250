package apiclient

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Filters maps field names to operator-supplied values, usually strings.
type Filters map[string]any

// Page selects a window of a list. Zero values are omitted.
type Page struct {
	Limit int
	Skip  int
}

// Filter is the backend list query, sent as one JSON "filter" parameter.
type Filter struct {
	Where map[string]any `json:"where"`
	Limit int            `json:"limit,omitempty"`
	Skip  int            `json:"skip,omitempty"`
	Order string         `json:"order,omitempty"`

	// Dropped names operator filters that were malformed and not applied.
	Dropped []string `json:"-"`
}

// Encode returns the JSON form of the filter.
func (f Filter) Encode() (string, error) {
	if f.Where == nil {
		f.Where = map[string]any{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(data), nil
}

const (
	expirationDateKey = "registerExpirationDate"
	totalPowerKey     = "totalPowerFilter"
	totalPowerField   = "totalPower"
	inequalitySuffix  = "Inequality"
	idSuffix          = "Id"
	idException       = "paramId"
)

var booleanFields = []string{"registerEnabled", "registerSelfConsumption", "licenseNeeded", "isActive", "enabled"}

var comparisonOps = []string{"eq", "neq", "gt", "gte", "lt", "lte"}

// BuildFilter translates filters, page and sort into the backend filter.
//
//   - empty values (nil, "", false, 0) are skipped
//   - registerExpirationDate accepts "op:date" with op in eq, neq, gt, gte,
//     lt, lte ("date" alone means eq)
//   - totalPowerFilter accepts "op:n", "between:a,b" and "inq:a,b,..." and
//     targets totalPower
//   - keys ending in "Inequality" become {neq:null} when the value contains
//     "neq", otherwise {eq:null} when it contains "eq"
//   - keys ending in "Id", except paramId, match exactly
//   - boolean fields (and keys ending in Enabled or Active) compare to "true"
//   - everything else is a case-insensitive contains match
//
// Malformed operator values are left out and listed in Filter.Dropped.
func BuildFilter(filters Filters, page Page, sort string) Filter {
	f := Filter{Where: make(map[string]any, len(filters))}
	for _, key := range sortedKeys(filters) {
		applyFilter(&f, key, filters[key])
	}
	f.paginate(page, sort)
	return f
}

// BuildExactFilter copies exact values verbatim (skipping nil and "") and
// translates other with the BuildFilter rules.
func BuildExactFilter(exact, other Filters, page Page, sort string) Filter {
	f := Filter{Where: make(map[string]any, len(exact)+len(other))}
	for _, key := range sortedKeys(exact) {
		v := exact[key]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		f.Where[key] = v
	}
	for _, key := range sortedKeys(other) {
		applyFilter(&f, key, other[key])
	}
	f.paginate(page, sort)
	return f
}

func (f *Filter) paginate(page Page, sort string) {
	if page.Limit > 0 {
		f.Limit = page.Limit
	}
	if page.Skip > 0 {
		f.Skip = page.Skip
	}
	if s := strings.TrimSpace(sort); s != "" {
		f.Order = s
	}
}

func applyFilter(f *Filter, key string, value any) {
	if isEmpty(value) {
		return
	}
	text := strings.TrimSpace(fmt.Sprint(value))

	switch {
	case key == expirationDateKey:
		if cond, ok := dateCondition(text); ok {
			f.Where[key] = cond
		} else {
			f.Dropped = append(f.Dropped, key)
		}
	case key == totalPowerKey:
		if cond, ok := powerCondition(text); ok {
			f.Where[totalPowerField] = cond
		} else {
			f.Dropped = append(f.Dropped, key)
		}
	case strings.HasSuffix(key, inequalitySuffix) && len(key) > len(inequalitySuffix):
		field := strings.TrimSuffix(key, inequalitySuffix)
		switch {
		case strings.Contains(text, "neq"):
			f.Where[field] = map[string]any{"neq": nil}
		case strings.Contains(text, "eq"):
			f.Where[field] = map[string]any{"eq": nil}
		}
	case strings.HasSuffix(key, idSuffix) && key != idException:
		f.Where[key] = value
	case isBooleanField(key):
		if b, ok := value.(bool); ok {
			f.Where[key] = b
		} else {
			f.Where[key] = text == "true"
		}
	default:
		f.Where[key] = map[string]any{"like": "%" + fmt.Sprint(value) + "%", "options": "i"}
	}
}

func isBooleanField(key string) bool {
	return slices.Contains(booleanFields, key) || strings.HasSuffix(key, "Enabled") || strings.HasSuffix(key, "Active")
}

// splitOp splits "op:rest"; a value without a colon is an eq on the whole.
func splitOp(raw string) (op, rest string) {
	op, rest, found := strings.Cut(raw, ":")
	if !found {
		return "eq", strings.TrimSpace(raw)
	}
	return strings.TrimSpace(op), strings.TrimSpace(rest)
}

func dateCondition(raw string) (any, bool) {
	op, date := splitOp(raw)
	if date == "" || !slices.Contains(comparisonOps, op) {
		return nil, false
	}
	if op == "eq" {
		return date, true
	}
	return map[string]any{op: date}, true
}

func powerCondition(raw string) (any, bool) {
	op, rest := splitOp(raw)
	switch op {
	case "between":
		parts := strings.Split(rest, ",")
		if len(parts) < 2 {
			return nil, false
		}
		a, okA := parseNumber(parts[0])
		b, okB := parseNumber(parts[1])
		if !okA || !okB {
			return nil, false
		}
		return map[string]any{"between": []float64{a, b}}, true
	case "inq":
		var nums []float64
		for _, p := range strings.Split(rest, ",") {
			if n, ok := parseNumber(p); ok {
				nums = append(nums, n)
			}
		}
		if len(nums) == 0 {
			return nil, false
		}
		return map[string]any{"inq": nums}, true
	default:
		if !slices.Contains(comparisonOps, op) {
			return nil, false
		}
		n, ok := parseNumber(rest)
		if !ok {
			return nil, false
		}
		if op == "eq" {
			return n, true
		}
		return map[string]any{op: n}, true
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// isEmpty mirrors the falsy check of the web client: nil, "", false and
// numeric zero are unset.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func sortedKeys(m Filters) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
