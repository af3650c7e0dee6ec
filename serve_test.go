package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/iconanim/stream"
)

func TestNewAppWiresIconToSynthesizer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fan.svg"), []byte(fanIcon), 0o644))

	cfg := stream.DefaultConfig()
	cfg.Icon.Path = dir
	cfg.Icon.Name = "fan"
	cfg.Theme.Colors = map[string]string{"blade": "#123456"}

	a, err := newApp(cfg)
	require.NoError(t, err)
	require.Nil(t, a.Client)

	require.NoError(t, a.Loader.Load(cfg.Icon.Name))
	state := a.Synth.State()
	require.Equal(t, 1, state.Handles)
	require.True(t, state.Running)

	require.NoError(t, a.Bridge.Handle(stream.Command{Op: "pause"}))
	require.True(t, a.Synth.State().Paused)
}

func TestNewAppRejectsBadTheme(t *testing.T) {
	cfg := stream.DefaultConfig()
	cfg.Theme.Colors = map[string]string{"blade": "green"}

	_, err := newApp(cfg)
	var configErr *stream.ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Equal(t, "Config.Theme.Colors", configErr.Field)
}

func TestNewAppAddsMQTTSink(t *testing.T) {
	cfg := stream.DefaultConfig()
	cfg.Mqtt.URL = "tcp://127.0.0.1:1883"

	a, err := newApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, a.Client)
	require.False(t, a.Client.IsConnected())
}
