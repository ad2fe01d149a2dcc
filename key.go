package memocache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// keyEnc uses RFC 8949 core deterministic encoding: map keys are sorted,
// floats are shortest-form, indefinite lengths are forbidden. That gives
// order-normalized Kwargs and byte-identical output across processes,
// which is what makes the derived keys stable.
var keyEnc cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	keyEnc = em
}

// keyPayload is the canonical shape hashed into a cache key. Field order
// is fixed by the struct; changing it changes every derived key.
type keyPayload struct {
	Ns      string         `cbor:"1,keyasint"`
	Fn      string         `cbor:"2,keyasint"`
	Version int            `cbor:"3,keyasint"`
	Args    []any          `cbor:"4,keyasint,omitempty"`
	Kwargs  map[string]any `cbor:"5,keyasint,omitempty"`
}

// deriveKey maps (namespace, call) to a hex SHA-256 key. Pure: no backend
// access, no clock. Equal calls always derive equal keys; the 256-bit hash
// makes accidental collisions between unequal calls negligible.
//
// Derivation operates on whatever argument set the caller supplies, so the
// caller must pass the fully bound set. The typed wrappers in wrap.go do
// this mechanically; hand-built Calls must include arguments the callee
// would default, or calls that differ only in defaults will alias.
func deriveKey(ns string, call Call) (string, error) {
	p := keyPayload{
		Ns:      ns,
		Fn:      call.Fn,
		Version: call.Version,
		Args:    call.Args,
		Kwargs:  call.Kwargs,
	}
	b, err := keyEnc.Marshal(p)
	if err != nil {
		// cbor rejects channels, funcs, unsafe pointers and cyclic values
		return "", fmt.Errorf("%w: %w", ErrUnhashableArgs, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
