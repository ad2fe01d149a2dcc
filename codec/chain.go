package codec

import (
	"errors"
	"fmt"
)

// Chain tries codecs in order. Encode uses the first codec that succeeds;
// Decode likewise. This supports payload migrations: put the new format
// first and keep the old one in the chain until entries written with it
// have expired.
//
// When every codec fails, the returned error aggregates all causes and
// unwraps to each of them.
type Chain[V any] struct {
	Codecs []Codec[V]
}

func NewChain[V any](codecs ...Codec[V]) Chain[V] {
	return Chain[V]{Codecs: codecs}
}

func (c Chain[V]) Encode(v V) ([]byte, error) {
	if len(c.Codecs) == 0 {
		return nil, errors.New("codec chain is empty")
	}
	errs := make([]error, 0, len(c.Codecs))
	for _, cd := range c.Codecs {
		b, err := cd.Encode(v)
		if err == nil {
			return b, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("all codecs failed to encode: %w", errors.Join(errs...))
}

func (c Chain[V]) Decode(b []byte) (V, error) {
	var zero V
	if len(c.Codecs) == 0 {
		return zero, errors.New("codec chain is empty")
	}
	errs := make([]error, 0, len(c.Codecs))
	for _, cd := range c.Codecs {
		v, err := cd.Decode(b)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	return zero, fmt.Errorf("all codecs failed to decode: %w", errors.Join(errs...))
}
