// Package identity canonicalizes principal identifiers.
//
// Principals are identified by did:key DIDs over ed25519 public keys. The
// canonical form is the multibase/multicodec encoding
// ("did:key:z" + base58btc(0xed 0x01 || key)). A deprecated legacy form
// ("did:key:" + base64url(key), unpadded) is still accepted: it encodes the
// same 32 bytes of key material, so both forms must normalize to the same
// canonical value. Storage lookups and equality checks are always performed
// on the canonical form, never on raw input.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"

	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// Prefix is the DID method prefix for did:key identifiers.
const Prefix = "did:key:"

// multicodecEd25519Pub is the multicodec varint prefix for ed25519 public keys.
var multicodecEd25519Pub = []byte{0xed, 0x01}

// ErrInvalidIdentifier indicates a principal identifier that is neither a
// canonical nor a legacy did:key encoding.
var ErrInvalidIdentifier = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid principal identifier")

// Normalize returns the canonical form of a principal identifier.
//
// Normalization is pure and deterministic: it never fails for a well-formed
// canonical or legacy identifier and is idempotent over its own output.
// The canonical multibase form is attempted first; identifiers that are not
// valid multibase fall back to the legacy base64url form.
func Normalize(did string) (string, error) {
	key, err := KeyMaterial(did)
	if err != nil {
		return "", err
	}
	return FromPublicKey(key), nil
}

// KeyMaterial extracts the raw ed25519 public key from a canonical or legacy
// did:key identifier.
func KeyMaterial(did string) (ed25519.PublicKey, error) {
	if len(did) <= len(Prefix) || did[:len(Prefix)] != Prefix {
		return nil, apperrors.Wrap(ErrInvalidIdentifier, "missing did:key prefix")
	}
	encoded := did[len(Prefix):]

	// Canonical multibase form: 'z' marks base58btc.
	if encoded[0] == 'z' {
		if key, err := decodeMultibase(encoded[1:]); err == nil {
			return key, nil
		}
	}

	// Legacy form: unpadded base64url of the raw key.
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, apperrors.Wrap(ErrInvalidIdentifier, "malformed key material")
	}
	return ed25519.PublicKey(raw), nil
}

// FromPublicKey encodes an ed25519 public key as a canonical did:key identifier.
func FromPublicKey(pub ed25519.PublicKey) string {
	payload := make([]byte, 0, len(multicodecEd25519Pub)+len(pub))
	payload = append(payload, multicodecEd25519Pub...)
	payload = append(payload, pub...)
	return Prefix + "z" + base58.Encode(payload)
}

// decodeMultibase decodes the base58btc payload of a canonical identifier and
// checks the multicodec prefix and key length.
func decodeMultibase(encoded string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(multicodecEd25519Pub)+ed25519.PublicKeySize {
		return nil, apperrors.Wrap(ErrInvalidIdentifier, "unexpected key length")
	}
	if raw[0] != multicodecEd25519Pub[0] || raw[1] != multicodecEd25519Pub[1] {
		return nil, apperrors.Wrap(ErrInvalidIdentifier, "unexpected multicodec prefix")
	}
	return ed25519.PublicKey(raw[2:]), nil
}
