package entity

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/cmaclient/pkg/apierror"
	"github.com/hashicorp-forge/cmaclient/pkg/transport/transporttest"
)

var versionMismatchBody = map[string]any{
	"sys":     map[string]any{"type": "Error", "id": "VersionMismatch"},
	"message": "version mismatch",
}

func TestRetryOnVersionMismatch(t *testing.T) {
	saved := spaceMemberRaw()
	saved["sys"].(map[string]any)["version"] = 3
	saved["admin"] = true

	doer := transporttest.New(transporttest.Sequence(
		transporttest.Reply(http.StatusConflict, versionMismatchBody),
		transporttest.Reply(http.StatusOK, saved),
	))
	w := newSpaceMemberWrapper(t, doer)

	fetches := 0
	fetch := func(ctx context.Context) (*Entity, error) {
		fetches++
		raw := spaceMemberRaw()
		raw["sys"].(map[string]any)["version"] = fetches
		return w.Wrap(raw)
	}
	mutate := func(e *Entity) error {
		e.Set("admin", true)
		return nil
	}

	got, err := RetryOnVersionMismatch(context.Background(), fetch, mutate, RetryOptions{
		InitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version())
	assert.Equal(t, 2, fetches)

	reqs := doer.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "1", reqs[0].Header.Get(DefaultVersionHeader))
	assert.Equal(t, "2", reqs[1].Header.Get(DefaultVersionHeader))
}

func TestRetryOnVersionMismatch_GivesUp(t *testing.T) {
	doer := transporttest.New(transporttest.Reply(http.StatusConflict, versionMismatchBody))
	w := newSpaceMemberWrapper(t, doer)

	fetch := func(ctx context.Context) (*Entity, error) { return w.Wrap(spaceMemberRaw()) }
	mutate := func(e *Entity) error { return nil }

	got, err := RetryOnVersionMismatch(context.Background(), fetch, mutate, RetryOptions{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
	})
	assert.Nil(t, got)

	var mismatch *apierror.VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Len(t, doer.Requests(), 2)
}

func TestRetryOnVersionMismatch_StopsOnOtherErrors(t *testing.T) {
	t.Run("update error", func(t *testing.T) {
		doer := transporttest.New(transporttest.Reply(http.StatusUnprocessableEntity, map[string]any{
			"sys": map[string]any{"type": "Error", "id": "ValidationFailed"},
		}))
		w := newSpaceMemberWrapper(t, doer)

		fetch := func(ctx context.Context) (*Entity, error) { return w.Wrap(spaceMemberRaw()) }
		_, err := RetryOnVersionMismatch(context.Background(), fetch, func(*Entity) error { return nil }, RetryOptions{
			InitialInterval: time.Millisecond,
		})
		assert.ErrorIs(t, err, apierror.ErrValidationFailed)
		assert.Len(t, doer.Requests(), 1)
	})

	t.Run("mutate error", func(t *testing.T) {
		doer := transporttest.New(transporttest.Reply(http.StatusOK, spaceMemberRaw()))
		w := newSpaceMemberWrapper(t, doer)
		boom := errors.New("boom")

		fetch := func(ctx context.Context) (*Entity, error) { return w.Wrap(spaceMemberRaw()) }
		_, err := RetryOnVersionMismatch(context.Background(), fetch, func(*Entity) error { return boom }, RetryOptions{})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, doer.Requests())
	})

	t.Run("fetch error", func(t *testing.T) {
		boom := errors.New("fetch failed")
		fetch := func(ctx context.Context) (*Entity, error) { return nil, boom }
		_, err := RetryOnVersionMismatch(context.Background(), fetch, func(*Entity) error { return nil }, RetryOptions{})
		assert.ErrorIs(t, err, boom)
	})
}
