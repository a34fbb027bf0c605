package bash5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-bash5/store"
)

// Common errors
var (
	// ErrNotFound is returned for holes missing from an index and for
	// datasets or metrics missing from the file. It is the same value as
	// store.ErrNotFound so either can be matched with errors.Is.
	ErrNotFound = store.ErrNotFound

	// ErrCapabilityMissing is wrapped by the errors returned when a file
	// lacks the basecall group an operation needs.
	ErrCapabilityMissing = errors.New("capability missing from file")

	ErrNoRawBasecalls       = fmt.Errorf("%w: no raw basecalls", ErrCapabilityMissing)
	ErrNoConsensusBasecalls = fmt.Errorf("%w: no consensus basecalls", ErrCapabilityMissing)

	// ErrRange is returned when a read's bounds fall outside its hole's events.
	ErrRange = errors.New("invalid slice of zmw")

	// ErrInvalidLookup is returned for lookup requests of an unsupported kind.
	ErrInvalidLookup = errors.New("invalid lookup request")

	// ErrClosed is returned by readers, parts and views after Close.
	ErrClosed = errors.New("reader is closed")
)
