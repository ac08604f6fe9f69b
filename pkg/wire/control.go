package wire

import "encoding/json"

// ControlMessage is the only mandatory control schema: a short JSON object
// with a `type` field. Implementations may accept other types; unknown
// types on read are ignored rather than rejected.
type ControlMessage struct {
	Type string `json:"type"`
}

// HangupType is the type of the one control message the core must be able
// to emit.
const HangupType = "hangup"

// HangupControlPayload returns the marshaled {"type":"hangup"} payload.
func HangupControlPayload() []byte {
	b, _ := json.Marshal(ControlMessage{Type: HangupType})
	return b
}

// ParseControlMessage unmarshals a control payload, ignoring unknown
// fields. Callers should treat an unrecognized Type as a no-op.
func ParseControlMessage(payload []byte) (ControlMessage, error) {
	var cm ControlMessage
	err := json.Unmarshal(payload, &cm)
	return cm, err
}
