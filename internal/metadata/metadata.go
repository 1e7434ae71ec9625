// Package metadata decodes the CBOR metadata trailer that solc appends to
// deployed bytecode and resolves it to a fetchable source address.
package metadata

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
)

// Origin names the storage network a source address points into.
type Origin string

const (
	OriginIPFS  Origin = "ipfs"
	OriginBzzr0 Origin = "bzzr0"
	OriginBzzr1 Origin = "bzzr1"
)

var (
	ErrNoTrailer       = errors.New("bytecode carries no metadata trailer")
	ErrNoSourceAddress = errors.New("metadata trailer names no source address")
)

// Trailer is the decoded CBOR map at the end of deployed bytecode.
type Trailer struct {
	IPFS  []byte `cbor:"ipfs"`
	Bzzr0 []byte `cbor:"bzzr0"`
	Bzzr1 []byte `cbor:"bzzr1"`
	Solc  []byte `cbor:"solc"`
}

// SourceAddress locates contract sources in a content-addressed store.
type SourceAddress struct {
	Origin Origin
	ID     string
}

func (s SourceAddress) String() string {
	return fmt.Sprintf("%s://%s", s.Origin, s.ID)
}

// Decode parses the metadata trailer of deployed bytecode. The last two bytes
// hold the big-endian length of the CBOR segment immediately before them.
func Decode(code []byte) (*Trailer, error) {
	if len(code) < 2 {
		return nil, ErrNoTrailer
	}
	segLen := int(binary.BigEndian.Uint16(code[len(code)-2:]))
	if segLen == 0 || segLen+2 > len(code) {
		return nil, ErrNoTrailer
	}

	seg := code[len(code)-2-segLen : len(code)-2]
	var t Trailer
	if err := cbor.Unmarshal(seg, &t); err != nil {
		return nil, fmt.Errorf("decode metadata trailer: %w", err)
	}
	return &t, nil
}

// SourceAddress resolves the trailer to a source address, preferring ipfs,
// then bzzr1, then bzzr0.
func (t *Trailer) SourceAddress() (*SourceAddress, error) {
	switch {
	case len(t.IPFS) > 0:
		return &SourceAddress{Origin: OriginIPFS, ID: base58.Encode(t.IPFS)}, nil
	case len(t.Bzzr1) > 0:
		return &SourceAddress{Origin: OriginBzzr1, ID: hex.EncodeToString(t.Bzzr1)}, nil
	case len(t.Bzzr0) > 0:
		return &SourceAddress{Origin: OriginBzzr0, ID: hex.EncodeToString(t.Bzzr0)}, nil
	}
	return nil, ErrNoSourceAddress
}

// SolcVersion renders the solc key as a dotted version string, if present.
func (t *Trailer) SolcVersion() string {
	if len(t.Solc) != 3 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", t.Solc[0], t.Solc[1], t.Solc[2])
}
