// Package navbar builds the navigation bar model shown on every page.
package navbar

import (
	"strconv"
	"strings"

	"github.com/tabzpay/progress-sub002/internal/uistate"
	"github.com/tabzpay/progress-sub002/types"
)

const maxBadge = 99

type Item struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// Items is the fixed navigation in display order.
var Items = []Item{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Customers", Path: "/customers"},
	{Label: "Loans", Path: "/loans"},
	{Label: "Groups", Path: "/groups"},
	{Label: "Templates", Path: "/templates"},
}

type Input struct {
	Path        string
	Preferences uistate.Preferences
	Unread      int
	User        *types.PublicUser
}

type Model struct {
	Items         []Item        `json:"items"`
	Theme         uistate.Theme `json:"theme"`
	SidebarOpen   bool          `json:"sidebarOpen"`
	UnreadCount   int           `json:"unreadCount"`
	UnreadBadge   string        `json:"unreadBadge,omitempty"`
	UserLabel     string        `json:"userLabel,omitempty"`
	Authenticated bool          `json:"authenticated"`
}

// Build marks the item whose path is the longest prefix of in.Path as
// active. The root path counts as the dashboard.
func Build(in Input) Model {
	items := make([]Item, len(Items))
	copy(items, Items)

	path := normalize(in.Path)
	if path == "/" {
		path = Items[0].Path
	}
	active, best := -1, 0
	for i, item := range items {
		if matches(path, item.Path) && len(item.Path) > best {
			active, best = i, len(item.Path)
		}
	}
	if active >= 0 {
		items[active].Active = true
	}

	theme := in.Preferences.Theme
	if !theme.Valid() {
		theme = uistate.ThemeLight
	}
	unread := in.Unread
	if unread < 0 {
		unread = 0
	}

	m := Model{
		Items:       items,
		Theme:       theme,
		SidebarOpen: in.Preferences.SidebarOpen,
		UnreadCount: unread,
		UnreadBadge: badge(unread),
	}
	if in.User != nil {
		m.Authenticated = true
		m.UserLabel = strings.TrimSpace(in.User.DisplayName)
		if m.UserLabel == "" {
			m.UserLabel = in.User.Email
		}
	}
	return m
}

func matches(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func badge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > maxBadge:
		return strconv.Itoa(maxBadge) + "+"
	default:
		return strconv.Itoa(n)
	}
}
