package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/stream"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/theme"
)

const icon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
  <g id="color_accent"><path fill="#fff"/></g>
  <g id="rotate_0_0_100_90"><rect width="2" height="2"/></g>
</svg>`

func newTestApi(t *testing.T) (*Api, *stream.Synthesizer, *httptest.Server) {
	t.Helper()
	log := logger.Nop()
	synth, err := stream.NewSynthesizer(stream.DefaultOptions(), false, time.Now, log)
	require.NoError(t, err)

	g, err := svg.ParseString(icon)
	require.NoError(t, err)
	synth.OnGraphicChanged(g)

	palette, err := theme.NewPalette(map[string]string{"accent": "#ff0000"})
	require.NoError(t, err)

	bridge := stream.NewBridge(synth, nil, stream.LevelConfig{Max: 100}, log)
	a := NewApi(":0", synth, bridge, palette, log)
	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)
	return a, synth, server
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeState(t *testing.T, resp *http.Response) stream.State {
	t.Helper()
	var state stream.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	return state
}

func TestIconAndCSS(t *testing.T) {
	_, _, server := newTestApi(t)

	resp, err := http.Get(server.URL + "/icon.svg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `fill="var(--accent, #fff)"`)

	resp, err = http.Get(server.URL + "/icon.css")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "--accent: #ff0000;")
	require.Contains(t, string(body), "@keyframes iconanim-0")
}

func TestTransportEndpoints(t *testing.T) {
	_, synth, server := newTestApi(t)

	state := decodeState(t, post(t, server.URL+"/play", ""))
	require.True(t, state.Running)
	require.Equal(t, 1, state.Handles)

	state = decodeState(t, post(t, server.URL+"/seek?position=1", ""))
	require.True(t, state.Paused)
	require.InDelta(t, stream.MaxPosition, state.Position, 1e-9)

	state = decodeState(t, post(t, server.URL+"/command", `{"op":"options","duration":3,"direction":"alternate"}`))
	require.Equal(t, 3.0, state.Options.Duration)
	require.Equal(t, stream.DirectionAlternate, synth.Options().Direction)

	state = decodeState(t, post(t, server.URL+"/command", "trigger"))
	require.True(t, state.Running)
}

func TestCommandErrors(t *testing.T) {
	_, _, server := newTestApi(t)

	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/command", `{"op":"dance"}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/command", `{"op":`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/command", `{"op":"seek"}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/seek?position=far", "").StatusCode)
	require.Equal(t, http.StatusUnprocessableEntity, post(t, server.URL+"/command", `{"op":"options","iterations":0}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/command", `{"op":"icon","name":"lamp"}`).StatusCode)

	resp, err := http.Get(server.URL + "/play")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestIconCommandStatus(t *testing.T) {
	log := logger.Nop()
	synth, err := stream.NewSynthesizer(stream.DefaultOptions(), false, time.Now, log)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fan.svg"), []byte(icon), 0o644))
	loader := svg.NewLoader(dir)
	loader.OnChange(synth.OnGraphicChanged)

	bridge := stream.NewBridge(synth, loader, stream.LevelConfig{Max: 100}, log)
	server := httptest.NewServer(NewApi(":0", synth, bridge, theme.Palette{}, log).Handler())
	defer server.Close()

	require.Equal(t, http.StatusNotFound, post(t, server.URL+"/command", `{"op":"icon","name":"lamp"}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, server.URL+"/command", `{"op":"icon","name":"../fan"}`).StatusCode)

	state := decodeState(t, post(t, server.URL+"/command", `{"op":"icon","name":"fan"}`))
	require.Equal(t, 1, state.Handles)
	require.Equal(t, "fan", loader.Name())
}

func TestStateAndMetrics(t *testing.T) {
	_, _, server := newTestApi(t)

	resp, err := http.Get(server.URL + "/state")
	require.NoError(t, err)
	state := decodeState(t, resp)
	resp.Body.Close()
	require.True(t, state.Paused)
	require.Equal(t, stream.DefaultOptions(), state.Options)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "iconanim_rebuilds_total")
}

func TestWebSocketStreamsFrames(t *testing.T) {
	a, synth, server := newTestApi(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var f stream.Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&f))
	require.False(t, f.Running)
	require.Len(t, f.Poses, 1)
	require.Equal(t, "rotate(0deg)", f.Poses[0].Transform)

	synth.SetProgress(0.5)
	require.Equal(t, "websocket", a.Name())
	require.NoError(t, a.Publish(synth.CalculateFrame()))
	require.NoError(t, conn.ReadJSON(&f))
	require.Equal(t, "rotate(45deg)", f.Poses[0].Transform)

	a.closeClients()
	a.clientsMutex.RLock()
	require.Empty(t, a.clients)
	a.clientsMutex.RUnlock()
}
