// Package transform provides the per-field byte transforms that convert
// between the human-readable string encodings used in structured values
// and the raw bytes carried on the wire.
package transform

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Set of errors for malformed string encodings.
var (
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
)

// checkVersion is the version byte attached by the Base58Check transform.
const checkVersion = 0x00

// Kind selects which string encoding a byte field carries.
type Kind int

// Set of supported byte transforms.
const (
	Raw Kind = iota
	Base58
	Base58Check
	Base64
	Base64URL
	Hex
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Base58:
		return "base58"
	case Base58Check:
		return "base58check"
	case Base64:
		return "base64"
	case Base64URL:
		return "base64url"
	case Hex:
		return "hex"
	}
	return "unknown"
}

// Parse converts a transform name into its Kind.
func Parse(name string) (Kind, error) {
	switch name {
	case "", "raw":
		return Raw, nil
	case "base58":
		return Base58, nil
	case "base58check":
		return Base58Check, nil
	case "base64":
		return Base64, nil
	case "base64url":
		return Base64URL, nil
	case "hex":
		return Hex, nil
	}
	return Raw, fmt.Errorf("transform %q: %w", name, ErrMalformedEncoding)
}

// =============================================================================

// ToBytes converts a string in the transform's encoding into raw bytes.
func ToBytes(kind Kind, value string) ([]byte, error) {
	switch kind {
	case Raw:
		return []byte(value), nil

	case Base58:
		if value == "" {
			return nil, nil
		}
		data := base58.Decode(value)
		if len(data) == 0 {
			return nil, fmt.Errorf("base58 %q: %w", value, ErrMalformedEncoding)
		}
		return data, nil

	case Base58Check:
		data, version, err := base58.CheckDecode(value)
		switch {
		case errors.Is(err, base58.ErrChecksum):
			return nil, fmt.Errorf("base58check %q: %w", value, ErrChecksumMismatch)
		case err != nil:
			return nil, fmt.Errorf("base58check %q: %w", value, ErrMalformedEncoding)
		case version != checkVersion:
			return nil, fmt.Errorf("base58check version %#x: %w", version, ErrMalformedEncoding)
		}
		return data, nil

	case Base64:
		data, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("base64: %w", ErrMalformedEncoding)
		}
		return data, nil

	case Base64URL:
		data, err := base64.RawURLEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("base64url: %w", ErrMalformedEncoding)
		}
		return data, nil

	case Hex:
		data, err := hexutil.Decode(value)
		if err != nil {
			return nil, fmt.Errorf("hex: %w", ErrMalformedEncoding)
		}
		return data, nil
	}

	return nil, fmt.Errorf("transform %d: %w", kind, ErrMalformedEncoding)
}

// ToString converts raw bytes into the transform's string encoding.
func ToString(kind Kind, data []byte) (string, error) {
	switch kind {
	case Raw:
		return string(data), nil

	case Base58:
		return base58.Encode(data), nil

	case Base58Check:
		return base58.CheckEncode(data, checkVersion), nil

	case Base64:
		return base64.StdEncoding.EncodeToString(data), nil

	case Base64URL:
		return base64.RawURLEncoding.EncodeToString(data), nil

	case Hex:
		return hexutil.Encode(data), nil
	}

	return "", fmt.Errorf("transform %d: %w", kind, ErrMalformedEncoding)
}
