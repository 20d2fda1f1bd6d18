package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Account{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&Account{FirstName: "Ada"}).FullName())
}
