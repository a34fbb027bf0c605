// Package bash5 provides indexed random access to PacBio bas.h5 and bax.h5
// run files.
//
// A run file records, for every hole (ZMW) of a chip, a variable-length
// stream of basecall events together with a region table that marks adapter,
// insert and high-quality (HQ) intervals of that stream. Opening a file
// builds the event offsets and region row spans once; afterwards any hole
// can be read without scanning the file.
//
// # Reading a file
//
//	r, err := bash5.Open("m110818_075520_42141_c1001_s1_p0.bas.h5")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	z, err := r.Zmw(8)
//	if err != nil {
//		return err
//	}
//	subreads, err := z.Subreads()
//	if err != nil {
//		return err
//	}
//	for _, read := range subreads {
//		bases, err := read.Basecalls()
//		if err != nil {
//			return err
//		}
//		fmt.Println(read.Name(), bases)
//	}
//
// Adapter and insert intervals are clipped to the hole's HQ region. A hole
// whose region table does not carry exactly one HQ row has the empty HQ
// region (0, 0) and therefore no subreads; such holes are reported through
// the Logger but are not errors.
//
// # Multi-part files
//
// A bas.h5 file that declares /MultiPart lists bax.h5 part files, resolved
// relative to its own directory, and a lookup table routing each hole to
// its part. Reader hides the split: SequencingZmws concatenates the parts
// and Zmw routes each hole to the part that records it.
//
// # Errors
//
// Missing holes, datasets and metrics give ErrNotFound. Operations needing
// a basecall group the file lacks give an error wrapping
// ErrCapabilityMissing. Reads outside their hole's events give ErrRange.
// Every view fails with ErrClosed once its reader is closed.
//
// Readers, parts and views are not safe for concurrent use.
package bash5
