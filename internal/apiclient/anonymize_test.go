package apiclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizer_RuleFor(t *testing.T) {
	a := DefaultAnonymizer()

	r, ok := a.RuleFor("admin/orders/abc")
	require.True(t, ok)
	assert.Equal(t, FieldEmail, r["userEmail"])

	r, ok = a.RuleFor("/user/conversations/c1/messages")
	require.True(t, ok)
	assert.Equal(t, FieldEmail, r["senderEmail"])

	_, ok = a.RuleFor("services")
	assert.False(t, ok)

	var nilAnon *Anonymizer
	_, ok = nilAnon.RuleFor("orders")
	assert.False(t, ok)
}

func TestAnonymizer_Apply(t *testing.T) {
	a := DefaultAnonymizer()
	body := []byte(`{"items":[{"email":"Anna@Real.it","name":"Anna","phone":"+39333","enabled":true},{"email":"","name":"Marco"}]}`)

	out := a.Apply("admin/users", body)

	var doc struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Items, 2)
	first := doc.Items[0]
	assert.Regexp(t, `^demo\.user\d{4}@example\.com$`, first["email"])
	assert.Regexp(t, `^Demo Client \d{4}$`, first["name"])
	assert.Regexp(t, `^\+390000\d{6}$`, first["phone"])
	assert.Equal(t, true, first["enabled"])
	assert.Equal(t, "", doc.Items[1]["email"])

	again := a.Apply("admin/users", []byte(`[{"email":"anna@real.it"}]`))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(again, &list))
	assert.Equal(t, first["email"], list[0]["email"], "same person keeps the same placeholder")
}

func TestAnonymizer_PassThrough(t *testing.T) {
	a := DefaultAnonymizer()
	assert.Equal(t, []byte(`{"name":"Trailer"}`), a.Apply("services", []byte(`{"name":"Trailer"}`)))
	assert.Equal(t, []byte(`not json`), a.Apply("orders", []byte(`not json`)))
	assert.Empty(t, a.Apply("orders", nil))
}
