package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf)
	require.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("entity", "Client").Info("imported")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "imported", line["msg"])
	require.Equal(t, "Client", line["entity"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := New("loud", "text", &bytes.Buffer{})
	require.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestFromContext(t *testing.T) {
	require.Equal(t, logrus.StandardLogger(), FromContext(context.Background()))

	entry := New("info", "text", &bytes.Buffer{}).WithField("request", "abc")
	ctx := WithLogger(context.Background(), entry)
	require.Equal(t, entry, FromContext(ctx))
}
