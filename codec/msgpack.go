package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack serializes values with vmihailenco/msgpack/v5. The zero value is
// ready to use.
//
// A good default for structs memoized into a shared backend: payloads are
// several times smaller than JSON, which matters when every poll in the wait
// loop re-reads the entry. Field matching follows Go names unless
// `msgpack:"..."` tags say otherwise; tags are independent of any `json`
// tags on the same struct, so entries written by a JSON codec are not
// readable by this one (chain both during a migration).
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	return msgpack.Marshal(v)
}
func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
