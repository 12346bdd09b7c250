package apiclient

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// FieldKind selects how a field is masked.
type FieldKind int

const (
	FieldEmail FieldKind = iota + 1
	FieldName
	FieldPhone
	FieldText
)

// Rule lists the masked fields of one entity.
type Rule map[string]FieldKind

// Anonymizer masks personal data in responses read while demo mode is on.
// Replacements are derived from the original value, so the same person maps
// to the same placeholder across calls.
type Anonymizer struct {
	rules map[string]Rule
}

// NewAnonymizer returns an Anonymizer keyed by entity name (a path segment
// such as "orders" or "messages").
func NewAnonymizer(rules map[string]Rule) *Anonymizer {
	return &Anonymizer{rules: rules}
}

// DefaultAnonymizer covers the backend's entities that carry personal data.
func DefaultAnonymizer() *Anonymizer {
	return NewAnonymizer(map[string]Rule{
		"orders": {
			"userEmail":    FieldEmail,
			"coupleName":   FieldName,
			"materialLink": FieldText,
			"deliveryLink": FieldText,
		},
		"conversations": {"userEmail": FieldEmail},
		"messages":      {"senderEmail": FieldEmail},
		"users": {
			"email":    FieldEmail,
			"name":     FieldName,
			"phone":    FieldPhone,
			"username": FieldText,
		},
		"dashboard": {
			"name":       FieldName,
			"coupleName": FieldName,
			"userEmail":  FieldEmail,
		},
	})
}

// RuleFor finds the rule for path, trying segments from last to first so
// "admin/orders/abc" and "user/conversations/x/messages" resolve to the
// orders and messages rules.
func (a *Anonymizer) RuleFor(path string) (Rule, bool) {
	if a == nil {
		return nil, false
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if r, ok := a.rules[segs[i]]; ok {
			return r, true
		}
	}
	return nil, false
}

// Apply rewrites a JSON document for path. Documents without a matching rule
// or that are not JSON are returned unchanged.
func (a *Anonymizer) Apply(path string, body []byte) []byte {
	rule, ok := a.RuleFor(path)
	if !ok || len(body) == 0 {
		return body
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return body
	}
	out, err := json.Marshal(mask(doc, rule))
	if err != nil {
		return body
	}
	return out
}

func mask(v any, rule Rule) any {
	switch t := v.(type) {
	case []any:
		for i := range t {
			t[i] = mask(t[i], rule)
		}
		return t
	case map[string]any:
		for k, val := range t {
			kind, ok := rule[k]
			s, isString := val.(string)
			if ok && isString && s != "" {
				t[k] = placeholder(kind, s)
				continue
			}
			t[k] = mask(val, rule)
		}
		return t
	default:
		return v
	}
}

func placeholder(kind FieldKind, original string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(original)))
	n := h.Sum32() % 10000
	switch kind {
	case FieldEmail:
		return fmt.Sprintf("demo.user%04d@example.com", n)
	case FieldName:
		return fmt.Sprintf("Demo Client %04d", n)
	case FieldPhone:
		return fmt.Sprintf("+390000%06d", n)
	default:
		return "demo"
	}
}
