package gateway

import "github.com/fxamacker/cbor/v2"

// Documents are CBOR-encoded with RFC3339Nano timestamps: the default epoch
// encoding truncates sub-second precision, which would corrupt message
// ordering on a read-modify-write cycle.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodeDocument(doc any) ([]byte, error) {
	return encMode.Marshal(doc)
}

func decodeDocument(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}
