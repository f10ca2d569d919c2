// Package codec defines the wire codec interfaces shared by the bundled
// providers and the test servers, along with the default CBOR implementation.
package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

type Encoder interface {
	Encode(v any) error
}

type Decoder interface {
	Decode(v any) error
}

type Marshaler interface {
	Marshal(v any) ([]byte, error)
	NewEncoder(w io.Writer) Encoder
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
	NewDecoder(r io.Reader) Decoder
}

// CborMarshaler marshals values using fxamacker/cbor.
type CborMarshaler struct {
}

func (c CborMarshaler) Marshal(v any) ([]byte, error) {
	em := getCborEncoder()
	return em.Marshal(v)
}

func (c CborMarshaler) NewEncoder(w io.Writer) Encoder {
	em := getCborEncoder()
	return em.NewEncoder(w)
}

// CborUnmarshaler unmarshals values using fxamacker/cbor.
type CborUnmarshaler struct {
}

func (c CborUnmarshaler) Unmarshal(data []byte, dst any) error {
	dm := getCborDecoder()
	return dm.Unmarshal(data, dst)
}

func (c CborUnmarshaler) NewDecoder(r io.Reader) Decoder {
	dm := getCborDecoder()
	return dm.NewDecoder(r)
}

func getCborEncoder() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func getCborDecoder() cbor.DecMode {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}
