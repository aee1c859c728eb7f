package navbar

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/internal/uistate"
	"github.com/tabzpay/progress-sub002/types"
)

func activeLabel(m Model) string {
	for _, item := range m.Items {
		if item.Active {
			return item.Label
		}
	}
	return ""
}

func TestBuildActiveItem(t *testing.T) {
	cases := map[string]string{
		"":                    "Dashboard",
		"/":                   "Dashboard",
		"/dashboard":          "Dashboard",
		"/loans":              "Loans",
		"/loans/12":           "Loans",
		"/loans/?status=PAID": "Loans",
		"/customers/4/edit":   "Customers",
		"/templates#new":      "Templates",
		"/loansharks":         "",
		"/settings":           "",
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			require.Equal(t, want, activeLabel(Build(Input{Path: path})))
		})
	}
}

func TestBuildDoesNotMutateItems(t *testing.T) {
	Build(Input{Path: "/groups"})
	for _, item := range Items {
		require.False(t, item.Active)
	}
}

func TestBuildCarriesPreferencesAndUser(t *testing.T) {
	m := Build(Input{
		Path:        "/groups",
		Preferences: uistate.Preferences{Theme: uistate.ThemeDark, SidebarOpen: false},
		Unread:      150,
		User:        &types.PublicUser{ID: 1, Email: "ada@example.com"},
	})

	require.Equal(t, uistate.ThemeDark, m.Theme)
	require.False(t, m.SidebarOpen)
	require.Equal(t, 150, m.UnreadCount)
	require.Equal(t, "99+", m.UnreadBadge)
	require.True(t, m.Authenticated)
	require.Equal(t, "ada@example.com", m.UserLabel)
}

func TestBuildAnonymous(t *testing.T) {
	m := Build(Input{Path: "/"})
	require.False(t, m.Authenticated)
	require.Empty(t, m.UserLabel)
	require.Equal(t, uistate.ThemeLight, m.Theme)
	require.Empty(t, m.UnreadBadge)
}
