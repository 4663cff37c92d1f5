package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// Reference is a one-time correlation key embedded in a transfer so the
// transfer can be found later. It is the public half of a throwaway ed25519
// keypair and never holds funds.
type Reference [ed25519.PublicKeySize]byte

// NewReference generates a fresh random reference.
func NewReference() (Reference, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Reference{}, fmt.Errorf("generating reference key: %w", err)
	}
	var ref Reference
	copy(ref[:], pub)
	return ref, nil
}

// ParseReference decodes a base58 reference.
func ParseReference(s string) (Reference, error) {
	raw := base58.Decode(s)
	if len(raw) != len(Reference{}) {
		return Reference{}, fmt.Errorf("invalid reference %q", s)
	}
	var ref Reference
	copy(ref[:], raw)
	return ref, nil
}

func (r Reference) String() string {
	return base58.Encode(r[:])
}

func (r Reference) IsZero() bool {
	return r == Reference{}
}

func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reference) UnmarshalText(text []byte) error {
	ref, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// EncodeSignature renders raw signature bytes in the chain's canonical base58 form.
func EncodeSignature(sig []byte) string {
	return base58.Encode(sig)
}
