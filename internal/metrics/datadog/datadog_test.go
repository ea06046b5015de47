package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elecetl/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	b, err := NewBackend(Config{})
	require.Error(t, err)
	assert.Nil(t, b)
}

func TestLabelsToTags(t *testing.T) {
	assert.Nil(t, labelsToTags(nil))
	assert.Equal(t,
		[]string{"job:electricity_etl", "status:success", "step:load_sales"},
		labelsToTags(metrics.Labels{"step": "load_sales", "status": "success", "job": "electricity_etl"}),
	)
}

func TestZeroBackend_NoPanic(t *testing.T) {
	b := &Backend{}
	assert.NotPanics(t, func() {
		b.IncCounter(metrics.RowsTotal, 1, nil)
		b.ObserveHistogram(metrics.StageDuration, 1, nil)
	})
	assert.NoError(t, b.Flush())
}

/*
TestBackend_SendsDogStatsD points the backend at a local UDP listener and
checks that a counter and a histogram arrive with namespace and tags.
*/
func TestBackend_SendsDogStatsD(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	b, err := NewBackend(Config{
		Addr:       conn.LocalAddr().String(),
		Namespace:  "elecetl.",
		GlobalTags: []string{"env:test"},
	})
	require.NoError(t, err)

	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"dataset": "sales", "kind": "loaded"})
	b.ObserveHistogram(metrics.StageDuration, 0.25, metrics.Labels{"step": "load_sales"})
	require.NoError(t, b.Flush())

	var got strings.Builder
	buf := make([]byte, 65536)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for !strings.Contains(got.String(), metrics.StageDuration) || !strings.Contains(got.String(), metrics.RowsTotal) {
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		got.Write(buf[:n])
		got.WriteByte('\n')
	}

	out := got.String()
	assert.Contains(t, out, "elecetl."+metrics.RowsTotal+":3|c")
	assert.Contains(t, out, "dataset:sales,kind:loaded")
	assert.Contains(t, out, "elecetl."+metrics.StageDuration+":0.25|h")
	assert.Contains(t, out, "env:test")
}
