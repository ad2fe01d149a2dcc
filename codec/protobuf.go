package codec

import "google.golang.org/protobuf/proto"

// Protobuf memoizes proto messages in their wire encoding. The schema
// evolution rules of protobuf carry over to cached entries: fields added
// with new numbers decode cleanly from old entries, so a Version bump on the
// Call is only needed when the meaning of a field changes, not its shape.
//
// Decode needs a fresh concrete message to unmarshal into, which generics
// cannot conjure from T alone; construct with NewProtobuf and a constructor.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *reportpb.Report { return &reportpb.Report{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
