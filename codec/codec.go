// Package codec defines the serialization port consumed by memocache.
//
// A Codec turns computed values V into bytes for backend storage and back.
// Encodings must round-trip: Decode(Encode(v)) must yield a value equal to v
// for the caller's purposes. Codecs never see the storage envelope; framing
// and validation belong to the engine.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
