package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionSegment(t *testing.T) {
	tests := map[string]string{
		"SpaceMember":            "space_members",
		"Entry":                  "entries",
		"EnvironmentAlias":       "environment_aliases",
		"ApiKey":                 "api_keys",
		"PreviewApiKey":          "preview_api_keys",
		"Asset":                  "assets",
		"Tag":                    "tags",
		"Branch":                 "branches",
		"Box":                    "boxes",
		"Day":                    "days",
		"OrganizationMembership": "organization_memberships",
	}
	for name, want := range tests {
		assert.Equal(t, want, CollectionSegment(name), name)
	}
}

func TestKind_Validate(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		wantErr bool
	}{
		{"builtin", SpaceMember, false},
		{"explicit path", TeamMembership, false},
		{"no actions", Kind{Name: "Thing", Path: "/things"}, false},
		{"missing name", Kind{Path: "/things"}, true},
		{"lowercase name", Kind{Name: "thing", Path: "/things"}, true},
		{"missing path", Kind{Name: "Thing"}, true},
		{"relative path", Kind{Name: "Thing", Path: "things"}, true},
		{"bad placeholder", Kind{Name: "Thing", Path: "/spaces/{SpaceID}/things"}, true},
		{"unknown action", Kind{Name: "Thing", Path: "/things", Actions: []Action{"explode"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.kind.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuiltinKinds_Valid(t *testing.T) {
	for _, k := range BuiltinKinds() {
		assert.NoError(t, k.Validate(), k.Name)
	}
}

func TestKind_Paths(t *testing.T) {
	assert.Equal(t, []string{"space_id", "environment_id"}, Entry.Placeholders())

	path, err := Entry.CollectionPath(Params{"space_id": "sp", "environment_id": "master"})
	require.NoError(t, err)
	assert.Equal(t, "/spaces/sp/environments/master/entries", path)

	path, err = Entry.EntityPath(Params{"space_id": "sp", "environment_id": "master"}, "a b")
	require.NoError(t, err)
	assert.Equal(t, "/spaces/sp/environments/master/entries/a%20b", path)

	_, err = Entry.CollectionPath(Params{"space_id": "sp"})
	assert.ErrorIs(t, err, ErrUnresolvedPath)
	assert.Contains(t, err.Error(), "environment_id")

	_, err = SpaceMember.EntityPath(Params{"space_id": "sp"}, "")
	assert.ErrorIs(t, err, ErrUnresolvedPath)

	path, err = TeamMembership.EntityPath(Params{"organization_id": "org", "team_id": "t1"}, "m1")
	require.NoError(t, err)
	assert.Equal(t, "/organizations/org/teams/t1/team_memberships/m1", path)
}

func TestKind_Supports(t *testing.T) {
	assert.True(t, Entry.Supports(ActionArchive))
	assert.True(t, ContentType.Supports(ActionPublish))
	assert.False(t, ContentType.Supports(ActionArchive))
	assert.False(t, SpaceMember.Supports(ActionPublish))
	assert.Equal(t, []Action{ActionUpdate, ActionDelete}, SpaceMember.Actions)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"SpaceMember", "space_member", "space-member", "spaceMember", "space_members"} {
		k, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "SpaceMember", k.Name, name)
	}

	k, ok := r.Lookup("entries")
	require.True(t, ok)
	assert.Equal(t, Entry, k)

	_, ok = r.Lookup("Widget")
	assert.False(t, ok)

	require.NoError(t, r.Register(SpaceKind("Widget", ActionUpdate)))
	k, ok = r.Lookup("widgets")
	require.True(t, ok)
	assert.Equal(t, "/spaces/{space_id}/widgets", k.Path)

	assert.Error(t, r.Register(Kind{Name: "bad"}))

	kinds := r.Kinds()
	assert.Len(t, kinds, len(BuiltinKinds())+1)
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, kinds[i-1].Name, kinds[i].Name)
	}
}

func TestNewRegistry_ReportsAllErrors(t *testing.T) {
	_, err := NewRegistry(
		SpaceMember,
		Kind{Name: "bad"},
		Kind{Name: "Worse", Path: "nope"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Contains(t, err.Error(), `"Worse"`)
}

func TestRegistry_ReturnsDetachedKinds(t *testing.T) {
	r, err := NewRegistry(Entry)
	require.NoError(t, err)

	k, ok := r.Lookup("Entry")
	require.True(t, ok)
	k.Actions[0] = "explode"

	for _, listed := range r.Kinds() {
		listed.Actions[len(listed.Actions)-1] = "explode"
	}

	again, ok := r.Lookup("entries")
	require.True(t, ok)
	assert.Equal(t, Entry.Actions, again.Actions)
	assert.NotContains(t, again.Actions, Action("explode"))
}
