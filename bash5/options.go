package bash5

import "github.com/robert-malhotra/go-bash5/store"

// Option configures Open and OpenPart.
type Option func(*options)

type options struct {
	logger *Logger
	opener store.Opener
}

func defaultOptions() *options {
	return &options{
		logger: NoopLogger(),
		opener: store.OpenHDF5,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. A nil logger keeps the default, which discards output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOpener replaces the function used to open the top-level file and
// every part file. The default opens HDF5 files with store.OpenHDF5.
func WithOpener(open store.Opener) Option {
	return func(o *options) {
		if open != nil {
			o.opener = open
		}
	}
}
