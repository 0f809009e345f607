package orchestrator

import "github.com/vmihailenco/msgpack/v5"

// encodeResult serializes r as the cache payload bytes. The cache engine
// treats the payload as opaque; this layer chooses msgpack.
func encodeResult(r *Result) ([]byte, error) {
	return msgpack.Marshal(r)
}

func decodeResult(payload []byte) (*Result, error) {
	var r Result
	if err := msgpack.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
