package appstate

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T, initial map[Key]string) *State {
	t.Helper()
	s, err := New(nil, initial)
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	s := newState(t, nil)

	assert.Equal(t, ModeJPG, s.Get(KeyMode))
	assert.Equal(t, ViewUpload, s.Get(KeyCurrentView))
	assert.Equal(t, models.FormatJPEG, s.Format())
}

func TestNew_Initial(t *testing.T) {
	s := newState(t, map[Key]string{KeyMode: ModePNG})
	assert.Equal(t, map[Key]string{KeyMode: ModePNG, KeyCurrentView: ViewUpload}, s.All())
	assert.Equal(t, models.FormatPNG, s.Format())

	_, err := New(nil, map[Key]string{KeyMode: "gif"})
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = New(nil, map[Key]string{"theme": "dark"})
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestSet_NotifiesOnlyOnChange(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()

	var got []Change
	_, err := s.Subscribe(KeyMode, func(c Change) { got = append(got, c) })
	require.NoError(t, err)
	var views int
	_, err = s.Subscribe(KeyCurrentView, func(Change) { views++ })
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, KeyMode, ModePNG))
	require.NoError(t, s.Set(ctx, KeyMode, ModePNG))

	assert.Equal(t, []Change{{Key: KeyMode, Value: ModePNG, Old: ModeJPG}}, got)
	assert.Zero(t, views)
}

func TestSet_Invalid(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, KeyMode, "webp"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(ctx, "theme", "x"), ErrUnknownKey)
	assert.Equal(t, ModeJPG, s.Get(KeyMode))
}

func TestSetMany(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()

	var got []Change
	unsubscribe, err := s.SubscribeAll(func(c Change) { got = append(got, c) })
	require.NoError(t, err)

	require.NoError(t, s.SetMany(ctx, map[Key]string{KeyMode: ModePNG, KeyCurrentView: ViewDownload}))
	assert.Equal(t, []Change{
		{Key: KeyMode, Value: ModePNG, Old: ModeJPG},
		{Key: KeyCurrentView, Value: ViewDownload, Old: ViewUpload},
	}, got)

	// nothing applied when one update is bad
	err = s.SetMany(ctx, map[Key]string{KeyMode: ModeJPG, KeyCurrentView: "settings"})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, ModePNG, s.Get(KeyMode))

	unsubscribe()
	require.NoError(t, s.Set(ctx, KeyMode, ModeJPG))
	assert.Len(t, got, 2)
}

func TestReset(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, KeyMode, ModePNG))

	var got []Change
	_, err := s.SubscribeAll(func(c Change) { got = append(got, c) })
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx, nil))
	assert.Equal(t, map[Key]string{KeyMode: ModeJPG, KeyCurrentView: ViewUpload}, s.All())
	assert.Equal(t, []Change{{Key: KeyMode, Value: ModeJPG, Old: ModePNG}}, got)

	require.NoError(t, s.Reset(ctx, map[Key]string{KeyCurrentView: ViewDownload}))
	assert.Equal(t, ViewDownload, s.Get(KeyCurrentView))
	assert.Len(t, got, 2)
}

func TestSubscribe_Errors(t *testing.T) {
	s := newState(t, nil)

	_, err := s.Subscribe(KeyMode, nil)
	assert.ErrorIs(t, err, common.ErrListenerNotFunction)

	_, err = s.Subscribe("theme", func(Change) {})
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = s.SubscribeAll(nil)
	assert.ErrorIs(t, err, common.ErrListenerNotFunction)
}

func TestListenerPanicIsIsolated(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()

	_, err := s.Subscribe(KeyMode, func(Change) { panic("boom") })
	require.NoError(t, err)
	var calls int
	_, err = s.Subscribe(KeyMode, func(Change) { calls++ })
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, KeyMode, ModePNG))
	assert.Equal(t, 1, calls)
	assert.Equal(t, ModePNG, s.Get(KeyMode))
}

func TestAll_IsACopy(t *testing.T) {
	s := newState(t, nil)

	all := s.All()
	all[KeyMode] = ModePNG
	assert.Equal(t, ModeJPG, s.Get(KeyMode))
}

func TestDestroy(t *testing.T) {
	s := newState(t, nil)
	ctx := context.Background()

	var calls int
	_, err := s.Subscribe(KeyMode, func(Change) { calls++ })
	require.NoError(t, err)

	s.Destroy()
	assert.Empty(t, s.All())

	require.NoError(t, s.Set(ctx, KeyMode, ModePNG))
	assert.Zero(t, calls)
}
