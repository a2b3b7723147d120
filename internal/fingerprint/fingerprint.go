// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fingerprint computes structural signatures of Go values. A value
// is serialized with CBOR Core Deterministic Encoding (sorted map keys,
// shortest integer forms) and the bytes are hashed with keyed BLAKE3, so
// the same logical data always yields the same signature.
package fingerprint

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Domain separates signatures computed for different purposes so that equal
// bytes hashed in two contexts never collide. Keys are ASCII, zero-padded
// to 32 bytes.
type Domain [32]byte

var (
	// DomainSave keys auto-save signatures of tracked editor fields.
	DomainSave = Domain{
		's', 'l', 'i', 'd', 'e', 's', 'm', 'i', 't', 'h', '.', 's', 'a', 'v', 'e',
	}

	// DomainRender keys template renderer cache entries.
	DomainRender = Domain{
		's', 'l', 'i', 'd', 'e', 's', 'm', 'i', 't', 'h', '.', 'r', 'e', 'n', 'd', 'e', 'r',
	}
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("fingerprint: CBOR encoder initialization failed: " + err.Error())
	}
}

// Signature is a hex-encoded 32-byte BLAKE3 digest.
type Signature string

// Of returns the signature of v in the given domain.
func Of(domain Domain, v any) (Signature, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint encode: %w", err)
	}

	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		return "", fmt.Errorf("fingerprint hasher: %w", err)
	}
	hasher.Write(data)
	return Signature(hex.EncodeToString(hasher.Sum(nil))), nil
}

// MustOf is like Of but panics on error. Use only with values whose types
// are known to encode (plain structs, slices, strings and numbers).
func MustOf(domain Domain, v any) Signature {
	sig, err := Of(domain, v)
	if err != nil {
		panic(err)
	}
	return sig
}
