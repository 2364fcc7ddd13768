package blocks_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geontech/grflow/pkg/blocks"
	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// freePort reserves a loopback UDP address for a listener under test.
func freePort(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())
	return addr
}

func TestUDPSource_BridgedRunBoundedByHead(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.byte")
	listen := freePort(t)

	src, err := blocks.NewUDPSource(blocks.UDPSourceConfig{Listen: listen})
	require.NoError(t, err)
	bridge, err := blocks.NewMsgToStream(blocks.MsgToStreamConfig{})
	require.NoError(t, err)
	head, err := blocks.NewHead(blocks.HeadConfig{Type: sample.Byte, NItems: 10})
	require.NoError(t, err)
	snk, err := blocks.NewFileSink(blocks.FileSinkConfig{Path: out, Type: sample.Byte})
	require.NoError(t, err)

	top := graph.NewTop()
	require.NoError(t, top.Add("src", src))
	require.NoError(t, top.Add("bridge", bridge))
	require.NoError(t, top.Add("head", head))
	require.NoError(t, top.Add("snk", snk))
	require.NoError(t, top.ConnectMsg("src", "out", "bridge", "in"))
	require.NoError(t, top.Connect("bridge", 0, "head", 0))
	require.NoError(t, top.Connect("head", 0, "snk", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- top.Run(ctx) }()

	// Feed datagrams until the head's limit is satisfied and the run stops.
	conn, err := net.Dial("udp", listen)
	require.NoError(t, err)
	defer conn.Close()
	payload := []byte("abcde")
	deadline := time.After(5 * time.Second)
	for {
		_, _ = conn.Write(payload)
		select {
		case err := <-done:
			require.NoError(t, err)
			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Len(t, got, 10)
			return
		case <-deadline:
			t.Fatal("run did not complete")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestMessageSink_AppendsPayloads(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "msgs.bin")
	listen := freePort(t)

	src, err := blocks.NewUDPSource(blocks.UDPSourceConfig{Listen: listen})
	require.NoError(t, err)
	snk, err := blocks.NewMessageSink(blocks.MessageSinkConfig{Path: out})
	require.NoError(t, err)

	top := graph.NewTop()
	require.NoError(t, top.Add("src", src))
	require.NoError(t, top.Add("snk", snk))
	require.NoError(t, top.ConnectMsg("src", "out", "snk", "in"))

	done := make(chan error, 1)
	go func() { done <- top.RunFor(context.Background(), 300*time.Millisecond) }()

	conn, err := net.Dial("udp", listen)
	require.NoError(t, err)
	defer conn.Close()
	// Give the listener a moment to bind before sending.
	time.Sleep(50 * time.Millisecond)
	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}

func TestUDPSource_RequiresListenAddress(t *testing.T) {
	_, err := blocks.NewUDPSource(blocks.UDPSourceConfig{})
	assert.Error(t, err)
}

func TestMessageSink_RequiresPath(t *testing.T) {
	_, err := blocks.NewMessageSink(blocks.MessageSinkConfig{})
	assert.Error(t, err)
}
