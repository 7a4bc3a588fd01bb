package serial

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openPTYPair opens a pty pair and wraps the master side as the serial
// Port under test, the same way the teacher's kiss.go uses
// github.com/creack/pty to stand in for a real serial device in tests.
func openPTYPair(t *testing.T) (*Port, *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})
	return newPort(master, "pty", nil), slave
}

func TestLineReadResponse_SkipsNoiseBeforeMarker(t *testing.T) {
	port, slave := openPTYPair(t)
	line := NewLine(port)

	go func() {
		slave.Write([]byte("garbage"))
		slave.Write([]byte("&K1234#"))
	}()

	resp, err := line.ReadResponse(64, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "K1234", resp)
}

func TestLineReadResponse_Timeout(t *testing.T) {
	port, _ := openPTYPair(t)
	line := NewLine(port)

	_, err := line.ReadResponse(64, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLineReadResponse_OverflowIsAnError(t *testing.T) {
	port, slave := openPTYPair(t)
	line := NewLine(port)

	go func() {
		slave.Write([]byte("&"))
		for i := 0; i < 100; i++ {
			slave.Write([]byte("a"))
		}
	}()

	_, err := line.ReadResponse(8, time.Second)
	assert.Error(t, err)
}

func TestPortWrite_FullRoundTrip(t *testing.T) {
	port, slave := openPTYPair(t)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 5)
		n, _ := slave.Read(buf)
		done <- buf[:n]
	}()

	require.NoError(t, port.Write([]byte("hello")))
	assert.Equal(t, []byte("hello"), <-done)
}
