package pathstore

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/treepath"
)

// record is the value stored under a path key: the owning node id, plus
// room to grow (the msgpack map keeps old adapters readable if fields are
// added later).
type record struct {
	ID treepath.NodeID `msgpack:"i"`
}

func encodeRecord(buf []byte, rec record) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(&rec)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode path record: %w", err))
	}
	return bb.Buf
}

func decodeRecord(data []byte) (record, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	var rec record
	err := dec.Decode(&rec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return record{}, fmt.Errorf("failed to decode path record (%d bytes): %w", len(data), err)
	}
	return rec, nil
}

type bytesBuilder struct {
	Buf []byte
}

func (bb *bytesBuilder) Write(chunk []byte) (int, error) {
	bb.Buf = append(bb.Buf, chunk...)
	return len(chunk), nil
}
