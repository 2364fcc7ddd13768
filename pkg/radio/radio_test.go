package radio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		dir     Direction
		wantErr bool
	}{
		{
			name: "valid receive",
			cfg:  Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6},
			dir:  Receive,
		},
		{
			name:    "missing device",
			cfg:     Config{SampleRate: 2e6, Freq: 100e6},
			dir:     Receive,
			wantErr: true,
		},
		{
			name:    "zero frequency",
			cfg:     Config{Device: "radio:56001", SampleRate: 2e6},
			dir:     Receive,
			wantErr: true,
		},
		{
			name:    "negative frequency",
			cfg:     Config{Device: "radio:56001", SampleRate: 2e6, Freq: -1},
			dir:     Transmit,
			wantErr: true,
		},
		{
			name:    "zero sample rate",
			cfg:     Config{Device: "radio:56001", Freq: 100e6},
			dir:     Receive,
			wantErr: true,
		},
		{
			name: "agc on receive",
			cfg:  Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6, Gain: AGC},
			dir:  Receive,
		},
		{
			name:    "agc on transmit",
			cfg:     Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6, Gain: AGC},
			dir:     Transmit,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.dir)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDefaultsAntenna(t *testing.T) {
	rx := Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6}
	require.NoError(t, rx.Validate(Receive))
	assert.Equal(t, "RX2", rx.Antenna)

	tx := Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6}
	require.NoError(t, tx.Validate(Transmit))
	assert.Equal(t, "TX/RX", tx.Antenna)

	keep := Config{Device: "radio:56001", SampleRate: 2e6, Freq: 100e6, Antenna: "RX1"}
	require.NoError(t, keep.Validate(Receive))
	assert.Equal(t, "RX1", keep.Antenna)
}

// fakeDevice accepts one connection, answers the tune handshake and then
// serves n complex samples back to back with the ack.
func fakeDevice(t *testing.T, n int, status string) (addr string, gotTune <-chan tuneRequest) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	tuned := make(chan tuneRequest, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var req tuneRequest
		if json.Unmarshal(line, &req) == nil {
			tuned <- req
		}

		reply, _ := json.Marshal(tuneReply{Status: status, Reason: "unsupported antenna"})
		// Ack line and sample stream share the connection; send them in one
		// write so buffered reads past the newline are exercised.
		payload := append(reply, '\n')
		vals := make([]complex64, n)
		for i := range vals {
			vals[i] = complex(float32(i), 0.5)
		}
		raw := make([]byte, 8*n)
		sample.PutComplex64(raw, vals)
		payload = append(payload, raw...)
		conn.Write(payload)
	}()
	return ln.Addr().String(), tuned
}

func TestSource_ReceivesSamplesAfterTune(t *testing.T) {
	addr, gotTune := fakeDevice(t, 100, "ok")

	src, err := NewSource(Config{Device: addr, SampleRate: 2e6, Freq: 100e6, Gain: AGC}, nopLogger())
	require.NoError(t, err)

	snkCh := make(chan []byte, 64)
	src.Out[0] = snkCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, src.Run(ctx))

	var vals []complex64
	for chunk := range snkCh {
		vals = append(vals, sample.Complex64s(chunk)...)
	}
	require.Len(t, vals, 100)
	assert.Equal(t, complex64(complex(0, 0.5)), vals[0])
	assert.Equal(t, complex64(complex(99, 0.5)), vals[99])

	select {
	case req := <-gotTune:
		assert.Equal(t, "receive", req.Direction)
		assert.True(t, req.AGC)
		assert.Equal(t, "RX2", req.Antenna)
	default:
		t.Fatal("device never saw a tune command")
	}
}

func TestSource_RejectedTuneFailsRun(t *testing.T) {
	addr, _ := fakeDevice(t, 0, "error")

	src, err := NewSource(Config{Device: addr, SampleRate: 2e6, Freq: 100e6}, nopLogger())
	require.NoError(t, err)
	src.Out[0] = make(chan []byte, 1)

	err = src.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported antenna")
}

func TestSink_TransmitsGraphSamples(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		if _, err := r.ReadBytes('\n'); err != nil {
			return
		}
		reply, _ := json.Marshal(tuneReply{Status: "ok"})
		conn.Write(append(reply, '\n'))
		data, _ := io.ReadAll(r)
		received <- data
	}()

	snk, err := NewSink(Config{Device: ln.Addr().String(), SampleRate: 2e6, Freq: 100e6}, nopLogger())
	require.NoError(t, err)

	in := make(chan []byte, 1)
	raw := make([]byte, 16)
	sample.PutComplex64(raw, []complex64{complex(1, 2), complex(3, 4)})
	in <- raw
	close(in)
	snk.In[0] = in

	require.NoError(t, snk.Run(context.Background()))

	select {
	case data := <-received:
		assert.Equal(t, raw, data)
	case <-time.After(5 * time.Second):
		t.Fatal("device never received samples")
	}
}

func TestDial_GivesUpWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A port nobody listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(ctx, addr, nopLogger())
	assert.Error(t, err)
}

var _ graph.Block = (*Source)(nil)
var _ graph.Block = (*Sink)(nil)
