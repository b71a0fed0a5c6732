package kernel

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the kernel's structured-logging sink. The kernel logs boot at
// Info and task activation requests at Debug; nothing else is logged. It is
// a type alias over stumpy's concrete event type rather
// than an interface of our own, following the teacher's own preference for
// using *logiface.Logger[E] directly instead of wrapping it.
type Logger = *logiface.Logger[*stumpy.Event]

// NewStumpyLogger builds the kernel's default production logger: logiface's
// builder API over stumpy's compact structured encoder, matching the
// construction the teacher's eventloop uses for its own logging.go.
func NewStumpyLogger(opts ...stumpy.Option) Logger {
	return stumpy.L.New(stumpy.L.WithStumpy(opts...))
}

// discardLogger is installed when [WithLogger] is never supplied to [New];
// events are still built, then handed to a writer that drops them.
func discardLogger() Logger {
	return stumpy.L.New(stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](
		func(*stumpy.Event) error { return nil },
	)))
}
