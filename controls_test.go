package facefilter

import (
	"strings"
	"testing"

	"github.com/esimov/facefilter/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControls_Apply(t *testing.T) {
	s := NewSettings(ModeFunFilter, true)

	require.NoError(t, s.Apply("mode mesh"))
	assert.Equal(t, ModeMesh, s.Mode())
	require.NoError(t, s.Apply("  MODE Landmarks "))
	assert.Equal(t, ModeLandmarks, s.Mode())
	require.NoError(t, s.Apply("mode sparkles"))
	assert.Equal(t, ModeNone, s.Mode())

	require.NoError(t, s.Apply("bg off"))
	assert.False(t, s.ShowBackground())
	require.NoError(t, s.Apply("background on"))
	assert.True(t, s.ShowBackground())
	require.NoError(t, s.Apply("bg toggle"))
	assert.False(t, s.ShowBackground())

	require.NoError(t, s.Apply(""))
	assert.Error(t, s.Apply("bg maybe"))
	assert.Error(t, s.Apply("zoom 2"))
	assert.Error(t, s.Apply("mode"))
	assert.False(t, s.ShowBackground())
}

func TestControls_Toggle(t *testing.T) {
	s := NewSettings(ModeNone, false)
	assert.True(t, s.ToggleBackground())
	assert.True(t, s.ShowBackground())
	assert.False(t, s.ToggleBackground())
	assert.False(t, s.ShowBackground())

	var zero Settings
	assert.Equal(t, ModeNone, zero.Mode())
	assert.False(t, zero.ShowBackground())
}

func TestControls_ReadCommands(t *testing.T) {
	s := NewSettings(ModeFunFilter, true)

	input := strings.NewReader("mode mesh\nnonsense\nbg off\n")
	require.NoError(t, s.ReadCommands(input, utils.Discard()))
	assert.Equal(t, ModeMesh, s.Mode())
	assert.False(t, s.ShowBackground())
}
