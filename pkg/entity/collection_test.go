package entity

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/transport/transporttest"
)

func spaceMemberCollectionRaw() map[string]any {
	second := spaceMemberRaw()
	second["sys"].(map[string]any)["id"] = "def"
	return map[string]any{
		"sys":   map[string]any{"type": "Array"},
		"total": 2,
		"skip":  0,
		"limit": 100,
		"items": []any{spaceMemberRaw(), second},
	}
}

func TestWrapCollection(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusOK, nil))
	w := newSpaceMemberWrapper(t, doer)

	raw := spaceMemberCollectionRaw()
	c, err := w.WrapCollection(raw)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Total())
	assert.Equal(t, 0, c.Skip())
	assert.Equal(t, 100, c.Limit())
	assert.Equal(t, "Array", c.Sys().Type())
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "abc", c.Items[0].ID())
	assert.Equal(t, "def", c.Items[1].ID())

	assert.Equal(t, raw, c.ToPlainObject())

	// Items carry their actions.
	require.NoError(t, c.Items[1].Delete(context.Background()))
	assert.Equal(t, "/spaces/space1/space_members/def", doer.LastRequest().Path)
}

func TestWrapCollection_NoSys(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	raw := map[string]any{
		"total": 1,
		"skip":  0,
		"limit": 100,
		"items": []any{spaceMemberRaw()},
	}
	c, err := w.WrapCollection(raw)
	require.NoError(t, err)
	assert.True(t, c.Sys().IsZero())
	assert.Equal(t, raw, c.ToPlainObject())
}

func TestWrapCollection_DoesNotAlias(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	raw := spaceMemberCollectionRaw()
	c, err := w.WrapCollection(raw)
	require.NoError(t, err)

	raw["total"] = 50
	raw["items"].([]any)[0].(map[string]any)["admin"] = true
	assert.Equal(t, 2, c.Total())
	assert.Equal(t, false, c.Items[0].Fields["admin"])

	v, ok := c.Get("total")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestWrapCollection_Malformed(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	t.Run("bad items", func(t *testing.T) {
		raw := map[string]any{
			"total": 3,
			"items": []any{
				spaceMemberRaw(),
				map[string]any{"sys": map[string]any{"type": "SpaceMember"}},
				"not an object",
			},
		}
		c, err := w.WrapCollection(raw)
		require.Error(t, err)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, apierror.ErrMalformedEntity)
		assert.Contains(t, err.Error(), "items[1]")
		assert.Contains(t, err.Error(), "items[2]")
		assert.NotContains(t, err.Error(), "items[0]")
	})

	t.Run("missing items", func(t *testing.T) {
		_, err := w.WrapCollection(map[string]any{"total": 0})
		assert.ErrorIs(t, err, apierror.ErrMalformedEntity)
	})

	t.Run("items not a list", func(t *testing.T) {
		_, err := w.WrapCollection(map[string]any{"items": map[string]any{}})
		assert.ErrorIs(t, err, apierror.ErrMalformedEntity)
	})
}

func TestWrapCollectionJSON(t *testing.T) {
	w := newSpaceMemberWrapper(t, transporttest.New(transporttest.Reply(http.StatusOK, nil)))

	c, err := w.WrapCollectionJSON([]byte(`{"total":1,"skip":0,"limit":25,"items":[{"sys":{"id":"abc","type":"SpaceMember","version":1},"admin":false,"roles":[]}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())
	assert.Equal(t, 25, c.Limit())
	assert.Equal(t, 1, c.Items[0].Version())
}
