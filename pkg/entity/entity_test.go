package entity

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/transport"
	"github.com/hashicorp-forge/cmaclient/pkg/transport/transporttest"
)

func spaceMemberRaw() map[string]any {
	return map[string]any{
		"sys": map[string]any{
			"id":      "abc",
			"type":    "SpaceMember",
			"version": 1,
		},
		"admin": false,
		"roles": []any{},
	}
}

func newSpaceMemberWrapper(t *testing.T, doer transport.Doer) *Wrapper {
	t.Helper()
	w, err := NewWrapper(doer, SpaceMember, WithParams(Params{"space_id": "space1"}))
	require.NoError(t, err)
	return w
}

func TestWrap_SpaceMember(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)

	assert.Equal(t, "abc", e.ID())
	assert.Equal(t, "SpaceMember", e.Sys().Type())
	assert.Equal(t, 1, e.Version())
	assert.Equal(t, false, e.Fields["admin"])
	assert.Equal(t, []any{}, e.Fields["roles"])
	assert.NotContains(t, e.Fields, "sys")
	assert.Equal(t, SpaceMember, e.Kind())

	for _, a := range []Action{ActionUpdate, ActionDelete} {
		assert.True(t, e.Supports(a), a)
	}
	assert.False(t, e.Supports(ActionPublish))
}

func TestWrap_RoundTrip(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	raw := spaceMemberRaw()
	raw["roles"] = []any{
		map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Role", "id": "r1"}},
	}
	raw["sys"].(map[string]any)["space"] = map[string]any{
		"sys": map[string]any{"type": "Link", "linkType": "Space", "id": "space1"},
	}

	e, err := w.Wrap(raw)
	require.NoError(t, err)

	plain := e.ToPlainObject()
	assert.Equal(t, raw, plain)
	assert.Equal(t, plain, e.ToPlainObject())

	again, err := w.Wrap(plain)
	require.NoError(t, err)
	assert.Equal(t, raw, again.ToPlainObject())
}

func TestWrap_DoesNotAlias(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	raw := spaceMemberRaw()
	e, err := w.Wrap(raw)
	require.NoError(t, err)

	// Changing the input after wrapping.
	raw["admin"] = true
	raw["sys"].(map[string]any)["version"] = 7
	assert.Equal(t, false, e.Fields["admin"])
	assert.Equal(t, 1, e.Version())

	// Changing the projection.
	plain := e.ToPlainObject()
	plain["admin"] = true
	plain["sys"].(map[string]any)["id"] = "other"
	assert.Equal(t, false, e.Fields["admin"])
	assert.Equal(t, "abc", e.ID())

	// Changing values read from sys.
	sysMap := e.Sys().Map()
	sysMap["version"] = 99
	assert.Equal(t, 1, e.Version())

	// Changing the entity does not leak into the input.
	e.Fields["roles"] = append(e.Fields["roles"].([]any), "x")
	assert.Empty(t, raw["roles"])
}

func TestWrap_Malformed(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	tests := []struct {
		name    string
		raw     map[string]any
		missing []string
	}{
		{
			name:    "no sys",
			raw:     map[string]any{"admin": true},
			missing: []string{"sys"},
		},
		{
			name:    "sys not an object",
			raw:     map[string]any{"sys": "abc"},
			missing: []string{"sys"},
		},
		{
			name:    "missing type",
			raw:     map[string]any{"sys": map[string]any{"id": "abc"}},
			missing: []string{"sys.type"},
		},
		{
			name:    "missing id",
			raw:     map[string]any{"sys": map[string]any{"type": "SpaceMember"}},
			missing: []string{"sys.id"},
		},
		{
			name:    "empty sys",
			raw:     map[string]any{"sys": map[string]any{}},
			missing: []string{"sys.type", "sys.id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := w.Wrap(tt.raw)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, apierror.ErrMalformedEntity)

			var malformed *apierror.MalformedEntityError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.missing, malformed.Missing)
		})
	}
}

func TestWrapJSON(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	e, err := w.WrapJSON([]byte(`{"sys":{"id":"abc","type":"SpaceMember","version":3},"admin":true,"roles":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, e.Version())
	assert.Equal(t, true, e.Fields["admin"])

	_, err = w.WrapJSON([]byte(`{"sys":`))
	assert.Error(t, err)
}

func TestNewWrapper_InvalidKind(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))

	_, err := NewWrapper(doer, Kind{Name: "thing", Path: "spaces"})
	assert.Error(t, err)

	_, err = NewWrapper(nil, SpaceMember)
	assert.Error(t, err)
}

func TestEntity_Update(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, map[string]any{
		"sys":   map[string]any{"id": "abc", "type": "SpaceMember", "version": 2},
		"admin": true,
		"roles": []any{},
	}))
	w := newSpaceMemberWrapper(t, doer)

	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)
	e.Set("admin", true)

	updated, err := e.Update(context.Background())
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, 2, updated.Version())
	assert.Equal(t, true, updated.Fields["admin"])
	assert.True(t, updated.Supports(ActionUpdate))
	assert.Equal(t, 1, e.Version(), "original entity keeps its version")

	req := doer.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/spaces/space1/space_members/abc", req.Path)
	assert.Equal(t, "1", req.Header.Get(DefaultVersionHeader))
	assert.Equal(t, map[string]any{"admin": true, "roles": []any{}}, req.Body)
}

func TestEntity_Update_VersionMismatch(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusConflict, map[string]any{
		"sys":     map[string]any{"type": "Error", "id": "VersionMismatch"},
		"message": "version mismatch",
	}))
	w := newSpaceMemberWrapper(t, doer)

	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)

	updated, err := e.Update(context.Background())
	require.Error(t, err)
	assert.Nil(t, updated)

	var mismatch *apierror.VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "SpaceMember", mismatch.Kind)
	assert.Equal(t, "abc", mismatch.EntityID)
	assert.Equal(t, 1, mismatch.Version)
	assert.Equal(t, http.StatusConflict, mismatch.API.Status)
	assert.True(t, apierror.IsVersionMismatch(err))

	assert.Equal(t, 1, e.Version())
	assert.Len(t, doer.Requests(), 1, "conflicts are never retried")
}

func TestEntity_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
		w := newSpaceMemberWrapper(t, doer)
		e, err := w.Wrap(spaceMemberRaw())
		require.NoError(t, err)

		require.NoError(t, e.Delete(context.Background()))

		req := doer.LastRequest()
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/spaces/space1/space_members/abc", req.Path)
		assert.Equal(t, "1", req.Header.Get(DefaultVersionHeader))
		assert.Nil(t, req.Body)
	})

	t.Run("not found", func(t *testing.T) {
		doer := transporttest.New(transporttest.Reply(http.StatusNotFound, map[string]any{
			"sys":     map[string]any{"type": "Error", "id": "NotFound"},
			"message": "The resource could not be found.",
		}))
		w := newSpaceMemberWrapper(t, doer)
		e, err := w.Wrap(spaceMemberRaw())
		require.NoError(t, err)

		err = e.Delete(context.Background())
		require.Error(t, err)

		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "NotFound", apiErr.Name)
		assert.True(t, apierror.IsNotFound(err))
		assert.False(t, apierror.IsVersionMismatch(err))

		var mismatch *apierror.VersionMismatchError
		assert.False(t, errors.As(err, &mismatch))
	})
}

func entryRaw() map[string]any {
	return map[string]any{
		"sys": map[string]any{
			"id":          "entry1",
			"type":        "Entry",
			"version":     5,
			"space":       map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Space", "id": "sp"}},
			"environment": map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Environment", "id": "master"}},
			"contentType": map[string]any{"sys": map[string]any{"type": "Link", "linkType": "ContentType", "id": "post"}},
		},
		"fields": map[string]any{"title": map[string]any{"en-US": "Hello"}},
	}
}

func TestEntity_StateActions(t *testing.T) {
	tests := []struct {
		action Action
		method string
		path   string
	}{
		{ActionPublish, http.MethodPut, "/spaces/sp/environments/master/entries/entry1/published"},
		{ActionUnpublish, http.MethodDelete, "/spaces/sp/environments/master/entries/entry1/published"},
		{ActionArchive, http.MethodPut, "/spaces/sp/environments/master/entries/entry1/archived"},
		{ActionUnarchive, http.MethodDelete, "/spaces/sp/environments/master/entries/entry1/archived"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			next := entryRaw()
			next["sys"].(map[string]any)["version"] = 6
			doer := transporttest.New(transporttest.Reply(http.StatusOK, next))

			e, err := Wrap(doer, Entry, entryRaw())
			require.NoError(t, err)

			var got *Entity
			switch tt.action {
			case ActionPublish:
				got, err = e.Publish(context.Background())
			case ActionUnpublish:
				got, err = e.Unpublish(context.Background())
			case ActionArchive:
				got, err = e.Archive(context.Background())
			case ActionUnarchive:
				got, err = e.Unarchive(context.Background())
			}
			require.NoError(t, err)
			assert.Equal(t, 6, got.Version())

			req := doer.LastRequest()
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, "5", req.Header.Get(DefaultVersionHeader))
			assert.Nil(t, req.Body)
		})
	}
}

func TestEntity_UnsupportedAction(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
	w := newSpaceMemberWrapper(t, doer)
	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)

	_, err = e.Publish(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedAction)
	_, err = e.Archive(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedAction)
	assert.Empty(t, doer.Requests())
}

func TestEntity_UpdateWithoutVersion(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, spaceMemberRaw()))
	w := newSpaceMemberWrapper(t, doer)

	raw := spaceMemberRaw()
	delete(raw["sys"].(map[string]any), "version")
	e, err := w.Wrap(raw)
	require.NoError(t, err)

	_, err = e.Update(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doer.LastRequest().Header.Get(DefaultVersionHeader))
}

func TestEntity_UnresolvedPath(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
	e, err := Wrap(doer, SpaceMember, spaceMemberRaw())
	require.NoError(t, err)

	_, err = e.Update(context.Background())
	assert.ErrorIs(t, err, ErrUnresolvedPath)
	assert.Empty(t, doer.Requests())
}

func TestEntity_SysLinksOverrideParams(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, entryRaw()))
	e, err := Wrap(doer, Entry, entryRaw(), WithParams(Params{"space_id": "fallback", "environment_id": "staging"}))
	require.NoError(t, err)

	_, err = e.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/spaces/sp/environments/master/entries/entry1", doer.LastRequest().Path)
}

func TestEntity_CustomVersionHeader(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, spaceMemberRaw()))
	e, err := Wrap(doer, SpaceMember, spaceMemberRaw(),
		WithParams(Params{"space_id": "space1"}),
		WithVersionHeader("X-Version"),
	)
	require.NoError(t, err)

	_, err = e.Update(context.Background())
	require.NoError(t, err)

	req := doer.LastRequest()
	assert.Equal(t, "1", req.Header.Get("X-Version"))
	assert.Empty(t, req.Header.Get(DefaultVersionHeader))
}

func TestEntity_ContextCanceled(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, spaceMemberRaw()))
	w := newSpaceMemberWrapper(t, doer)
	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Update(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apierror.IsVersionMismatch(err))
}

func TestEntity_DecodeFields(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
	w := newSpaceMemberWrapper(t, doer)

	raw := spaceMemberRaw()
	raw["admin"] = true
	raw["roles"] = []any{
		map[string]any{"sys": map[string]any{"type": "Link", "linkType": "Role", "id": "r1"}},
		map[string]any{"type": "Link", "linkType": "Role", "id": "r2"},
	}
	e, err := w.Wrap(raw)
	require.NoError(t, err)

	var fields SpaceMemberFields
	require.NoError(t, e.DecodeFields(&fields))
	assert.True(t, fields.Admin)
	assert.Equal(t, []Link{NewLink("Role", "r1"), NewLink("Role", "r2")}, fields.Roles)
	assert.Empty(t, fields.RelatedMemberships)
}

func TestEntity_MarshalJSON(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
	w := newSpaceMemberWrapper(t, doer)
	e, err := w.Wrap(spaceMemberRaw())
	require.NoError(t, err)

	data, err := e.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sys":{"id":"abc","type":"SpaceMember","version":1},"admin":false,"roles":[]}`, string(data))
}
