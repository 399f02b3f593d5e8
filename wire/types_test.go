package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameKindString(t *testing.T) {
	assert.Equal(t, "DATA", DATA.String())
	assert.Equal(t, "ACK", ACK.String())
	assert.Equal(t, "NAK", NAK.String())
	assert.Equal(t, "FrameKind(7)", FrameKind(7).String())
}

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		FrameArrival:      "FRAME_ARRIVAL",
		CksumErr:          "CKSUM_ERR",
		Timeout:           "TIMEOUT",
		AckTimeout:        "ACK_TIMEOUT",
		NetworkLayerReady: "NETWORK_LAYER_READY",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
	assert.Equal(t, "EventKind(99)", EventKind(99).String())
}
