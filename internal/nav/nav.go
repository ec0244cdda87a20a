// Package nav builds the sidebar links for the current user and route.
package nav

import "strings"

// Link is one sidebar entry.
type Link struct {
	Label  string `json:"label"`
	Route  string `json:"route"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

type linkDef struct {
	label, route, icon string
	needsAuth          bool
}

var sidebar = []linkDef{
	{label: "Home", route: "/", icon: "/icons/home.svg"},
	{label: "Discover", route: "/discover", icon: "/icons/discover.svg"},
	{label: "Create Podcast", route: "/create-podcast", icon: "/icons/microphone.svg", needsAuth: true},
	{label: "Profile", route: "/profile", icon: "/icons/profile.svg", needsAuth: true},
}

// IsActive reports whether route should be highlighted for pathname.
func IsActive(pathname, route string) bool {
	return pathname == route || strings.HasPrefix(pathname, route+"/")
}

// Links returns the sidebar for pathname. Anonymous users (empty userID)
// only see public links; signed-in users get a profile link to their own
// page.
func Links(pathname, userID string) []Link {
	out := make([]Link, 0, len(sidebar))
	for _, d := range sidebar {
		if d.needsAuth && userID == "" {
			continue
		}
		route := d.route
		if d.route == "/profile" {
			route = "/profile/" + userID
		}
		out = append(out, Link{
			Label:  d.label,
			Route:  route,
			Icon:   d.icon,
			Active: IsActive(pathname, route),
		})
	}
	return out
}
