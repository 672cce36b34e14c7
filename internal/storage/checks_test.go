package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_SaveAndGetCheck(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	c := testCheck("c1", model.ChannelSMS, model.LabelSuspicious, at)
	c.Confidence = &model.Confidence{Value: 97.3, Scale: model.ScalePercent}

	require.NoError(t, store.SaveCheck(ctx, c))

	got, err := store.GetCheck(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Channel, got.Channel)
	assert.Equal(t, c.Subject, got.Subject)
	assert.Equal(t, c.Label, got.Label)
	assert.Equal(t, c.Display, got.Display)
	assert.Equal(t, c.Raw, got.Raw)
	assert.True(t, at.Equal(got.CheckedAt), "checked_at %v != %v", got.CheckedAt, at)
	require.NotNil(t, got.Confidence)
	assert.Equal(t, *c.Confidence, *got.Confidence)
}

func TestSQLiteStorage_SaveCheckWithoutConfidence(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveCheck(ctx, testCheck("u1", model.ChannelURL, model.LabelSafe, time.Now())))

	got, err := store.GetCheck(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got.Confidence)
}

func TestSQLiteStorage_SaveCheckReplaces(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	c := testCheck("dup", model.ChannelPhone, model.LabelSafe, time.Now())
	require.NoError(t, store.SaveCheck(ctx, c))
	c.Label = model.LabelSuspicious
	require.NoError(t, store.SaveCheck(ctx, c))

	got, err := store.GetCheck(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, model.LabelSuspicious, got.Label)

	all, err := store.ListChecks(ctx, service.CheckFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStorage_GetCheckNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetCheck(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SaveCheckValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		check model.Check
	}{
		{"empty id", testCheck("", model.ChannelSMS, model.LabelSafe, now)},
		{"bad channel", testCheck("a", model.Channel("fax"), model.LabelSafe, now)},
		{"bad label", testCheck("a", model.ChannelSMS, model.Label("MAYBE"), now)},
		{"zero time", testCheck("a", model.ChannelSMS, model.LabelSafe, time.Time{})},
		{
			"bad scale",
			func() model.Check {
				c := testCheck("a", model.ChannelSMS, model.LabelSafe, now)
				c.Confidence = &model.Confidence{Value: 1, Scale: "ratio"}
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveCheck(ctx, tt.check)
			assert.ErrorIs(t, err, ErrInvalidCheck)
		})
	}
}

func TestSQLiteStorage_ListChecks(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []model.Check{
		testCheck("1", model.ChannelPhone, model.LabelSafe, base),
		testCheck("2", model.ChannelUPI, model.LabelSuspicious, base.Add(time.Minute)),
		testCheck("3", model.ChannelPhone, model.LabelSuspicious, base.Add(2*time.Minute)),
		testCheck("4", model.ChannelQR, model.LabelSafe, base.Add(3*time.Minute)),
	}
	for _, c := range seed {
		require.NoError(t, store.SaveCheck(ctx, c))
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := store.ListChecks(ctx, service.CheckFilter{})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, []string{"4", "3", "2", "1"}, ids(got))
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.ListChecks(ctx, service.CheckFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"4", "3"}, ids(got))
	})

	t.Run("by channel", func(t *testing.T) {
		got, err := store.ListChecks(ctx, service.CheckFilter{Channel: model.ChannelPhone})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "1"}, ids(got))
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := store.ListChecks(ctx, service.CheckFilter{Channel: "fax"})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("counts", func(t *testing.T) {
		counts, err := store.CountChecks(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[model.Label]int{model.LabelSafe: 2, model.LabelSuspicious: 2}, counts)
	})
}

func TestSQLiteStorage_ListChecksEmpty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	got, err := store.ListChecks(context.Background(), service.CheckFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func ids(checks []model.Check) []string {
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = c.ID
	}
	return out
}
