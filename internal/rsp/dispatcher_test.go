package rsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDispatcher answers each Handle call with the next entry in
// replies, closing the session after the last one.
type scriptedDispatcher struct {
	replies []string
	seen    []string
}

func (d *scriptedDispatcher) Handle(packet string) (string, bool) {
	d.seen = append(d.seen, packet)
	reply := d.replies[0]
	d.replies = d.replies[1:]
	return reply, len(d.replies) == 0
}

func TestServe_DispatchesUntilCloseSession(t *testing.T) {
	client, server := newPipe(t)
	transport := New(server, nil, nil)
	transport.SetNoAckMode(true)

	d := &scriptedDispatcher{replies: []string{"S05", "OK"}}
	done := make(chan error, 1)
	go func() { done <- transport.Serve(d) }()

	client.Write([]byte("$?#00"))
	reply := make([]byte, 32)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(reply)
	require.NoError(t, err)
	assert.Contains(t, string(reply[:n]), "S05")

	client.Write([]byte("$D#00"))
	n, err = client.Read(reply)
	require.NoError(t, err)
	assert.Contains(t, string(reply[:n]), "OK")

	require.NoError(t, <-done)
	assert.Equal(t, []string{"?", "D"}, d.seen)
}

func TestServe_EOTStopsWithoutDispatch(t *testing.T) {
	client, server := newPipe(t)
	transport := New(server, nil, nil)

	d := &scriptedDispatcher{replies: []string{"unused"}}
	done := make(chan error, 1)
	go func() { done <- transport.Serve(d) }()

	client.Write([]byte{0x04})

	require.NoError(t, <-done)
	assert.Empty(t, d.seen)
}
