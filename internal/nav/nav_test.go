package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	tests := []struct {
		pathname, route string
		want            bool
	}{
		{"/", "/", true},
		{"/discover", "/", false},
		{"/discover", "/discover", true},
		{"/discover/trending", "/discover", true},
		{"/discovery", "/discover", false},
		{"/create-podcast", "/create-podcast", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsActive(tt.pathname, tt.route), "%s vs %s", tt.pathname, tt.route)
	}
}

func TestLinksAnonymous(t *testing.T) {
	links := Links("/", "")
	assert.Len(t, links, 2)
	assert.Equal(t, "Home", links[0].Label)
	assert.True(t, links[0].Active)
	assert.Equal(t, "Discover", links[1].Label)
	assert.False(t, links[1].Active)
}

func TestLinksSignedIn(t *testing.T) {
	links := Links("/profile/user-1", "user-1")
	assert.Len(t, links, 4)

	profile := links[3]
	assert.Equal(t, "Profile", profile.Label)
	assert.Equal(t, "/profile/user-1", profile.Route)
	assert.True(t, profile.Active)

	for _, l := range links[:3] {
		assert.False(t, l.Active, l.Label)
	}
}
