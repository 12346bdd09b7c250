package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

func ptr[T any](v T) *T { return &v }

func TestServiceInput_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		in    ServiceInput
		field string
	}{
		{"valid", ServiceInput{Name: " Teaser ", Description: "60s", Orientation: OrientationBoth}, ""},
		{"missing name", ServiceInput{Description: "d", Orientation: OrientationBoth}, "name"},
		{"long name", ServiceInput{Name: strings.Repeat("x", 201), Description: "d", Orientation: OrientationBoth}, "name"},
		{"missing description", ServiceInput{Name: "n", Orientation: OrientationBoth}, "description"},
		{"long duration text", ServiceInput{Name: "n", Description: "d", DurationDescription: strings.Repeat("y", 501), Orientation: OrientationBoth}, "durationDescription"},
		{"orientation", ServiceInput{Name: "n", Description: "d"}, "orientation"},
		{"negative duration", ServiceInput{Name: "n", Description: "d", Orientation: OrientationVertical, MinDuration: ptr(-1)}, "minDuration"},
		{"min above max", ServiceInput{Name: "n", Description: "d", Orientation: OrientationVertical, MinDuration: ptr(10), MaxDuration: ptr(5)}, "maxDuration"},
		{"negative price", ServiceInput{Name: "n", Description: "d", Orientation: OrientationVertical, PriceBoth: ptr(-0.5)}, "priceBoth"},
		{"bad options", ServiceInput{Name: "n", Description: "d", Orientation: OrientationVertical, AdditionalOptions: json.RawMessage(`{oops`)}, "additionalOptions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.Normalize()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestServiceInput_PayloadOmitsUnset(t *testing.T) {
	in := ServiceInput{
		Name:              "Highlight",
		Description:       "5 minutes",
		Orientation:       OrientationHorizontal,
		PriceHorizontal:   ptr(595.0),
		AdditionalOptions: json.RawMessage("  {\"drone\":true} "),
	}
	require.NoError(t, in.Normalize())

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Highlight","description":"5 minutes","orientation":"horizontal","priceHorizontal":595,"additionalOptions":{"drone":true}}`, string(data))

	blank := ServiceInput{Name: "n", Description: "d", Orientation: OrientationBoth, AdditionalOptions: json.RawMessage("  ")}
	require.NoError(t, blank.Normalize())
	assert.Nil(t, blank.AdditionalOptions)
}

func TestService_Price(t *testing.T) {
	s := Service{PriceVertical: ptr(195.0)}
	p, ok := s.Price(OrientationVertical)
	assert.True(t, ok)
	assert.InDelta(t, 195, p, 0.001)
	_, ok = s.Price(OrientationBoth)
	assert.False(t, ok)
}

func TestPoolUser(t *testing.T) {
	u := PoolUser{Email: "Anna@Studio.it", Status: UserForceChangePassword}
	assert.Equal(t, "password change required", u.StatusLabel())
	assert.Equal(t, "ARCHIVED", PoolUser{Status: "ARCHIVED"}.StatusLabel())

	assert.True(t, u.Toggleable("someone@else.it"))
	assert.False(t, u.Toggleable("anna@studio.it"))
	assert.False(t, PoolUser{Email: "x@y.z", IsAdmin: true}.Toggleable(""))
}

func TestConversationRequests(t *testing.T) {
	r := OpenConversationRequest{Subject: "  Consegna ", OrderID: " o1 "}
	require.NoError(t, r.Normalize())
	assert.Equal(t, OpenConversationRequest{Subject: "Consegna", OrderID: "o1"}, r)

	blank := OpenConversationRequest{Subject: " "}
	assert.Equal(t, "subject", apperrors.GetField(blank.Normalize()))

	msg, err := NewSendMessageRequest("  ciao ")
	require.NoError(t, err)
	assert.Equal(t, "ciao", msg.Content)
	_, err = NewSendMessageRequest("\n")
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, ConversationStatus("archived").Valid())
}
