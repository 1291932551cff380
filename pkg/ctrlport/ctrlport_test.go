package ctrlport

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delayline/pkg/delayline"
)

// fakeLink is an in-memory stand-in for the serial port: Read hands out
// scripted bytes, Write collects the status lines.
type fakeLink struct {
	mu     sync.Mutex
	rx     chan byte
	tx     strings.Builder
	closed bool
}

func newFakeLink(script ...byte) *fakeLink {
	l := &fakeLink{rx: make(chan byte, len(script))}
	for _, b := range script {
		l.rx <- b
	}
	return l
}

func (l *fakeLink) Read(p []byte) (int, error) {
	b, open := <-l.rx
	if !open {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (l *fakeLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tx.Write(p)
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.rx)
	}
	return nil
}

func (l *fakeLink) sent() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tx.String()
}

// fakeApplier records the flags it was asked to apply.
type fakeApplier struct {
	flags []byte
}

func (a *fakeApplier) Apply(flag byte) delayline.Settings {
	a.flags = append(a.flags, flag)
	return delayline.Decode(flag, delayline.DefaultDelayFactor)
}

func TestCommandMapping(t *testing.T) {
	// 0x07 and 0x1f are below the command range and must be dropped;
	// 0x20 is flag 0x00, 0x42 is flag 0x22
	link := newFakeLink(0x07, 0x20, 0x1f, 0x42)
	applier := &fakeApplier{}

	h := New(link, applier)

	var applied []delayline.Settings
	for i := 0; i < 2; i++ {
		applied = append(applied, <-h.C)
	}
	require.NoError(t, link.Close())
	<-h.done

	assert.Equal(t, []byte{0x00, 0x22}, applier.flags)
	assert.False(t, applied[0].Enabled)
	assert.True(t, applied[1].Enabled)
	assert.Equal(t, uint32(40), applied[1].LatencyMs)
}

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name string
		cmd  byte
		want string
	}{
		{"disabled", 0x20, "disabled\r\n"},
		{"direct", 0x40, "direct\r\n"},
		{"delayed", 0x43, "delay 60ms\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := newFakeLink(tt.cmd)
			h := New(link, &fakeApplier{})

			<-h.C
			require.NoError(t, link.Close())
			<-h.done

			assert.Equal(t, tt.want, link.sent())
		})
	}
}

func TestCloseStopsLoop(t *testing.T) {
	link := newFakeLink()
	h := New(link, &fakeApplier{})

	assert.NoError(t, h.Close())

	// channel is closed once the loop is down
	_, open := <-h.C
	assert.False(t, open)
}
