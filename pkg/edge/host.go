// Package edge implements the edge-side media adapter: the
// in-process application a softswitch dialplan loads to answer a call,
// open the TCP leg to the bridge, and pump audio in both directions on a
// 20ms cadence.
package edge

// Host abstracts the softswitch primitives the adapter needs. A real
// deployment backs this with the softswitch's native call-control API;
// cmd/edgesim backs it with an in-memory simulator for local testing.
type Host interface {
	// Answer answers the call if it has not already been answered.
	Answer() error

	// ReadMedia blocks for up to one 20ms tick and returns the native
	// codec bytes the softswitch decoded from the RTP payload this tick,
	// or (nil, nil) if nothing arrived this tick. A length >= 160 is real
	// audio; shorter lengths (e.g. 2 bytes) are comfort noise.
	ReadMedia() ([]byte, error)

	// WriteMedia hands one native-codec frame to the softswitch's write
	// path, tagged with the given write codec name. Returns an error if
	// the host rejects the write (e.g. media not ready, codec unset).
	WriteMedia(codec string, payload []byte) error

	// WriteCodec reports the session's negotiated write codec name, or
	// "" if not yet known.
	WriteCodec() string

	// Hangup invokes the host's hangup primitive with a clearing cause.
	Hangup(cause string) error
}
