package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameReleaseLine(t *testing.T) {
	running := MustParse("1.1.5")

	assert.True(t, SameReleaseLine(running, MustParse("1.1.0")))
	assert.True(t, SameReleaseLine(running, MustParse("e1.1.9.3")))
	assert.False(t, SameReleaseLine(running, MustParse("1.0.0")))
	assert.False(t, SameReleaseLine(running, MustParse("2.1.5")))
}

func TestSameRevision(t *testing.T) {
	running := MustParse("1.1.5")

	assert.True(t, SameRevision(running, MustParse("1.1.5.7")))
	assert.False(t, SameRevision(running, MustParse("1.1.4")))
}

func TestConstraintRelation(t *testing.T) {
	rel, err := ConstraintRelation(">= {major}.{minor}.0, < {major}.{minor}.{patch}")
	require.NoError(t, err)

	running := MustParse("1.4.3")
	assert.True(t, rel(running, MustParse("1.4.0")))
	assert.True(t, rel(running, MustParse("1.4.2.99")))
	assert.False(t, rel(running, MustParse("1.4.3")))
	assert.False(t, rel(running, MustParse("1.3.9")))
}

func TestConstraintRelation_Invalid(t *testing.T) {
	_, err := ConstraintRelation("not a constraint ~~")
	assert.Error(t, err)
}

func TestRelationByName(t *testing.T) {
	running := MustParse("1.2.3")
	candidate := MustParse("1.2.7")

	rel, err := RelationByName("")
	require.NoError(t, err)
	assert.True(t, rel(running, candidate))

	rel, err = RelationByName("revision")
	require.NoError(t, err)
	assert.False(t, rel(running, candidate))

	rel, err = RelationByName("~{major}.{minor}")
	require.NoError(t, err)
	assert.True(t, rel(running, candidate))
	assert.False(t, rel(running, MustParse("1.3.0")))
}
