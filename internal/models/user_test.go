package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserCanSell(t *testing.T) {
	assert.False(t, User{UserType: UserTypeBuyer}.CanSell())
	assert.True(t, User{UserType: UserTypeSeller}.CanSell())
	assert.True(t, User{UserType: UserTypeBoth}.CanSell())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Kofi Mensah", User{FirstName: "Kofi", LastName: "Mensah"}.FullName())
	assert.Equal(t, "Kofi", User{FirstName: "Kofi"}.FullName())
	assert.Equal(t, "Mensah", User{LastName: "Mensah"}.FullName())
	assert.Equal(t, "", User{}.FullName())
}
