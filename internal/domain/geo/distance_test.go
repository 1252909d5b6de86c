package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePoint(t *testing.T) {
	p := Point{Lat: -6.2, Lng: 106.8}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistance_KnownPair(t *testing.T) {
	// Monas to Istiqlal Mosque in Jakarta, roughly 650 m apart.
	monas := Point{Lat: -6.17540, Lng: 106.82719}
	istiqlal := Point{Lat: -6.17010, Lng: 106.83119}

	d := Distance(monas, istiqlal)
	assert.InDelta(t, 740, d, 120)
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Lat: -6.2, Lng: 106.8}
	b := Point{Lat: -6.21, Lng: 106.81}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude is about 111.2 km everywhere on the sphere.
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 1, Lng: 0}
	assert.InDelta(t, 111195, Distance(a, b), 100)
}

func TestPoint_IsValid(t *testing.T) {
	assert.True(t, Point{Lat: -6.2, Lng: 106.8}.IsValid())
	assert.True(t, Point{}.IsValid())
	assert.False(t, Point{Lat: 91, Lng: 0}.IsValid())
	assert.False(t, Point{Lat: 0, Lng: -181}.IsValid())
}

func TestPoint_IsZero(t *testing.T) {
	assert.True(t, Point{}.IsZero())
	assert.False(t, Point{Lat: 0.0001}.IsZero())
}
