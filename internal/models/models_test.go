package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_View(t *testing.T) {
	user := &User{
		FirstName:      "John",
		LastName:       "Smith",
		Phone:          "5551234567",
		HashedPassword: "deadbeef",
		Checks:         []string{"a", "b"},
		TOSAgreement:   true,
	}

	view := user.View()
	assert.Equal(t, "John", view.FirstName)
	assert.Equal(t, "Smith", view.LastName)
	assert.Equal(t, "5551234567", view.Phone)
	assert.Equal(t, []string{"a", "b"}, view.Checks)
	assert.True(t, view.TOSAgreement)

	// View не должен разделять slice с исходной записью
	view.Checks[0] = "changed"
	assert.Equal(t, "a", user.Checks[0])
}

func TestUser_RemoveCheck(t *testing.T) {
	user := &User{Checks: []string{"a", "b", "c"}}

	assert.True(t, user.HasCheck("b"))
	assert.True(t, user.RemoveCheck("b"))
	assert.Equal(t, []string{"a", "c"}, user.Checks)
	assert.False(t, user.HasCheck("b"))
	assert.False(t, user.RemoveCheck("b"))
	assert.Equal(t, []string{"a", "c"}, user.Checks)
}

func TestToken_ActiveAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name    string
		expires int64
		want    bool
	}{
		{name: "in the future", expires: now.UnixMilli() + 1, want: true},
		{name: "exactly now", expires: now.UnixMilli(), want: false},
		{name: "in the past", expires: now.UnixMilli() - 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &Token{Expires: tt.expires}
			assert.Equal(t, tt.want, token.ActiveAt(now))
		})
	}
}
