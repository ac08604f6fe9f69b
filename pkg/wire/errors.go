package wire

import "errors"

// Error kinds shared by the handshake reader and the tagged record codec.
// These mirror the abstract "error kinds" named across the bridge: callers
// use errors.Is against these sentinels rather than matching on strings.
var (
	ErrProtocolFraming = errors.New("wire: protocol framing error")
	ErrCodecMismatch   = errors.New("wire: codec mismatch")
)
