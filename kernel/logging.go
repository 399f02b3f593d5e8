package kernel

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/joeycumines/go-linksim/wire"
)

// Logger is the structured logger type accepted by New. The zero value
// (nil) is always valid and silently discards every event, the same
// fallback behaviour eventloop gives its own NewNoOpLogger() default,
// except here it's injected explicitly rather than reached for through a
// package-level global.
type Logger = *logiface.Logger[*stumpy.Event]

// NewJSONLogger returns a Logger that writes newline-delimited JSON to w,
// suitable for passing to New via WithLogger.
func NewJSONLogger(w io.Writer) Logger {
	return stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(w)))
}

// logEvent emits one debug-level structured record per delivered
// simulation event. No-ops when log is nil.
func logEvent(log Logger, now float64, ev wire.Event) {
	if log == nil {
		return
	}
	b := log.Debug().Float64(`at`, now).Str(`kind`, ev.Kind.String())
	switch ev.Kind {
	case wire.FrameArrival:
		b = b.Str(`frame_kind`, ev.Frame.Kind.String()).
			Int(`seq`, ev.Frame.Seq).
			Int(`ack`, ev.Frame.Ack)
	case wire.Timeout:
		b = b.Int(`seq_key`, ev.SeqKey)
	}
	b.Log(`event delivered`)
}

// logDrop emits a warn-level record when the channel drops or corrupts a
// frame in transit. No-ops when log is nil.
func logDrop(log Logger, now float64, f wire.Frame, corrupt bool) {
	if log == nil {
		return
	}
	reason := `dropped`
	if corrupt {
		reason = `corrupted`
	}
	log.Warning().
		Float64(`at`, now).
		Str(`reason`, reason).
		Str(`frame_kind`, f.Kind.String()).
		Int(`seq`, f.Seq).
		Log(`frame lost in transit`)
}
