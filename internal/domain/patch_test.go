package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "property-listing/pkg/errors"
)

func TestDecodePatchStripsProtectedKeys(t *testing.T) {
	raw := []byte(`{"id":"x","userId":"intruder","createdAt":"2020-01-01T00:00:00Z","price":5,"title":" Nuevo "}`)
	patch, err := DecodePatch(raw)
	require.NoError(t, err)

	var p Property
	fields := patch.Apply(&p)
	assert.ElementsMatch(t, []string{"Price", "Title"}, fields)
	assert.Equal(t, "Nuevo", p.Title)
	assert.Empty(t, p.ID)
	assert.Empty(t, p.UserID)
}

func TestDecodePatchRejectsUnknownAndMalformed(t *testing.T) {
	_, err := DecodePatch([]byte(`{"colour":"red"}`))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	_, err = DecodePatch([]byte(`[1,2]`))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	_, err = DecodePatch([]byte(`{"price":"cheap"}`))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}

func TestDraftDefaultsActive(t *testing.T) {
	assert.True(t, PropertyDraft{}.Build().Active)
	off := false
	assert.False(t, PropertyDraft{Active: &off}.Build().Active)
}
