package wire

import (
	"bytes"
	"testing"
	"time"
)

func TestEntryRoundTrip(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"total":42}`)

	b := EncodeEntry(created, payload)
	got, p, err := DecodeEntry(b)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if !bytes.Equal(p, payload) {
		t.Fatalf("payload mismatch: %q", p)
	}
	if !got.Equal(created) {
		t.Fatalf("createdAt mismatch: %v vs %v", got, created)
	}
}

func TestEntryEmptyPayload(t *testing.T) {
	b := EncodeEntry(time.UnixMilli(0), nil)
	_, p, err := DecodeEntry(b)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("expected empty payload, got %q", p)
	}
}

func TestDecodeRejectsCorrupt(t *testing.T) {
	valid := EncodeEntry(time.Now(), []byte("payload"))

	cases := []struct {
		name string
		b    []byte
	}{
		{"nil", nil},
		{"short", []byte{'M', 'E'}},
		{"bad magic", append([]byte("XXXX"), valid[4:]...)},
		{"bad version", func() []byte {
			c := append([]byte(nil), valid...)
			c[4] = 99
			return c
		}()},
		{"bad kind", func() []byte {
			c := append([]byte(nil), valid...)
			c[5] = 99
			return c
		}()},
		{"truncated payload", valid[:len(valid)-3]},
		{"header only with huge vlen", func() []byte {
			c := append([]byte(nil), valid[:18]...)
			c[14], c[15], c[16], c[17] = 0xff, 0xff, 0xff, 0xff
			return c
		}()},
	}
	for _, tc := range cases {
		if _, _, err := DecodeEntry(tc.b); err != ErrCorrupt {
			t.Errorf("%s: expected ErrCorrupt, got %v", tc.name, err)
		}
	}
}
