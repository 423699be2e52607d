package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dki-gateway/middleware/dki/domain"
)

func TestSynchronizer_UpdatesOnlyExactMatches(t *testing.T) {
	a := entry("Hornchurch")
	b := entry("Romford")
	c := entry("HORNCHURCH")
	d := entry("Hornchurch Village")
	e := &fakeEntry{}
	sp := fakeSocialProof{a, b, c, d, e}

	n, err := Synchronizer{}.Sync(sp, hornchurch, "Ilford")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Ilford", a.city)
	assert.Equal(t, "Romford", b.city)
	assert.Equal(t, "HORNCHURCH", c.city)
	assert.Equal(t, "Hornchurch Village", d.city)
	assert.Equal(t, "", e.city)
}

func TestSynchronizer_MissingDataIsSkipped(t *testing.T) {
	sink := &recordingSink{}

	n, err := Synchronizer{Sink: sink}.Sync(nil, hornchurch, "Ilford")

	assert.ErrorIs(t, err, domain.ErrMissingExternalData)
	assert.Zero(t, n)
	require.Len(t, sink.got, 1)
	assert.ErrorIs(t, sink.got[0].Err, domain.ErrMissingExternalData)
}

func TestSynchronizer_SameCityIsNoop(t *testing.T) {
	a := entry("Hornchurch")

	n, err := Synchronizer{}.Sync(fakeSocialProof{a}, hornchurch, "Hornchurch")

	require.NoError(t, err)
	assert.Zero(t, n)
}
