package zerologger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	Level    string `json:"level"`
	Msg      string `json:"message"`
	NewState string `json:"new_state"`
	Arg      string `json:"arg"`
}

func TestHandler(t *testing.T) {
	t.Run("key value pairs", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{})
		h := New(buf)

		h.Info("supervisor state transitioned", "new_state", "Connected")

		var line logLine
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "info", line.Level)
		require.Equal(t, "supervisor state transitioned", line.Msg)
		require.Equal(t, "Connected", line.NewState)
	})

	t.Run("trailing key without value", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{})
		h := New(buf)

		h.Warn("odd args", "dangling")

		var line logLine
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "dangling", line.Arg)
	})

	t.Run("from existing logger", func(t *testing.T) {
		buf := bytes.NewBuffer([]byte{})
		h := FromLogger(zerolog.New(buf))

		h.Error("connect failed", "error", "dial refused")

		var line logLine
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "error", line.Level)
		require.Equal(t, "connect failed", line.Msg)
	})
}
