package location

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetFragmentNotifiesOnChange(t *testing.T) {
	t.Parallel()

	h := NewHash("#home")
	require.Equal(t, "home", h.Fragment())

	var got []string
	unsubscribe := h.Subscribe(func(f string) { got = append(got, f) })

	h.SetFragment("#cv")
	h.SetFragment("cv")
	h.SetFragment("about")
	require.Equal(t, []string{"cv", "about"}, got)
	require.Equal(t, 3, h.Len())

	unsubscribe()
	unsubscribe()
	h.SetFragment("blog")
	require.Equal(t, []string{"cv", "about"}, got)
}

func TestBackForward(t *testing.T) {
	t.Parallel()

	h := NewHash("")
	h.SetFragment("cv")
	h.SetFragment("blog")

	var got []string
	h.Subscribe(func(f string) { got = append(got, f) })

	require.True(t, h.Back())
	require.Equal(t, "cv", h.Fragment())
	require.True(t, h.Back())
	require.Equal(t, "", h.Fragment())
	require.False(t, h.Back())
	require.True(t, h.Forward())
	require.Equal(t, []string{"cv", "", "cv"}, got)

	// A new entry drops the forward history.
	h.SetFragment("about")
	require.False(t, h.Forward())
	require.Equal(t, 3, h.Len())
}

func TestSubscriberMayWriteLocation(t *testing.T) {
	t.Parallel()

	h := NewHash("home")
	h.Subscribe(func(f string) {
		if f == "resume" {
			h.SetFragment("home")
		}
	})
	h.SetFragment("resume")
	require.Equal(t, "home", h.Fragment())
}
