// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes. Audit entry hashes depend on this.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored for forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Audit contexts are map[string]any values. When the decoder's
		// target is any, it must pick a concrete Go map type; the CBOR
		// default is map[interface{}]interface{} (CBOR allows
		// non-string keys), which is incompatible with encoding/json
		// and with the map[string]any contexts the policy engine and
		// audit log pass around. This setting only affects any-typed
		// targets.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Clone deep-copies value through a CBOR round trip. The copy shares no
// mutable state with the original. Values must be encodable with
// Marshal; maps keyed by non-strings or containing channels, functions,
// or similar types return an error.
func Clone[T any](value T) (T, error) {
	var copied T
	data, err := Marshal(value)
	if err != nil {
		return copied, err
	}
	if err := Unmarshal(data, &copied); err != nil {
		return copied, err
	}
	return copied, nil
}
