package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "contact not found with ID: 42", (&ErrNotFound{Entity: "contact", ID: "42"}).Error())
	assert.Equal(t, "validation error: bad", NewValidationError("bad").Error())
	assert.Equal(t, "unauthenticated: expired", (&ErrUnauthenticated{Reason: ReasonExpired}).Error())
}

func TestIsUnauthenticated(t *testing.T) {
	assert.True(t, IsUnauthenticated(&ErrUnauthenticated{Reason: ReasonMissing}))
	assert.True(t, IsUnauthenticated(fmt.Errorf("wrapped: %w", &ErrUnauthenticated{Reason: ReasonMalformed})))
	assert.False(t, IsUnauthenticated(errors.New("boom")))
	assert.False(t, IsUnauthenticated(nil))
}

func TestErrOAuthExchangeUnwrap(t *testing.T) {
	inner := errors.New("bad code")
	err := &ErrOAuthExchange{Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "bad code")
}
