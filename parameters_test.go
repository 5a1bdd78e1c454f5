package spindle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/spindletest"
)

func TestParameters(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	r.AttachContainer(
		spindle.RoleProject,
		spindletest.NewMapContainer("project").WithParameter("locale", "en_US").WithParameter("store", "DE"),
	)
	r.AttachContainer(
		spindle.RoleApplication,
		spindletest.NewMapContainer("app").WithParameter("locale", "de_DE"),
	)

	v, err := r.GetParameter("locale")
	require.NoError(t, err)
	assert.Equal(t, "de_DE", v)

	v, err = r.GetParameter("store")
	require.NoError(t, err)
	assert.Equal(t, "DE", v)

	r.SetParameter("locale", "fr_FR")
	assert.Equal(t, "fr_FR", r.FindParameter("locale"))

	assert.True(t, r.HasParameter("store"))
	assert.False(t, r.HasParameter("currency"))
	assert.Nil(t, r.FindParameter("currency"))

	v, err = r.GetParameter("currency")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParameters_PlainContainerUsesServices(t *testing.T) {
	t.Parallel()

	r := newResolver(t)
	r.AttachContainer(
		spindle.RoleApplication,
		spindletest.NewMapContainer("app").With("kernel.debug", true).Plain(),
	)

	assert.True(t, r.HasParameter("kernel.debug"))
	assert.Equal(t, true, r.FindParameter("kernel.debug"))
}
