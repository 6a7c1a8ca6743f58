package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, SessionIDFromContext(context.Background()))

	user := &User{ID: "google-123"}
	ctx := WithUser(context.Background(), user, "session-1")

	got, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, user, got)
	assert.Equal(t, "session-1", SessionIDFromContext(ctx))
}

func TestUserPatchFromJSON(t *testing.T) {
	p, err := UserPatchFromJSON([]byte(`{"name": "New Name", "picture": "https://example.com/a.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "New Name", *p.Name)
	assert.Equal(t, "https://example.com/a.png", p.Picture.String)
	assert.False(t, p.IsEmpty())

	p, err = UserPatchFromJSON([]byte(`{"picture": null}`))
	require.NoError(t, err)
	assert.True(t, p.Picture.IsNull)

	p, err = UserPatchFromJSON([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	for _, body := range []string{`{"name": ""}`, `{"picture": "not a url"}`, `{"name": 1}`} {
		_, err := UserPatchFromJSON([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestUserPatchApply(t *testing.T) {
	pic := "https://example.com/old.png"
	u := User{ID: "1", Name: "Old", Picture: &pic, UpdatedAt: created}
	name := "  New  "

	got := (&UserPatch{Name: &name, Picture: &NullableString{IsNull: true}}).Apply(u, later)

	assert.Equal(t, "New", got.Name)
	assert.Nil(t, got.Picture)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, "Old", u.Name)
}

func TestSessionExpired(t *testing.T) {
	s := &Session{ExpiresAt: later}
	assert.False(t, s.Expired(later.Add(-time.Second)))
	assert.True(t, s.Expired(later))
}
