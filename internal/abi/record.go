package abi

import (
	"encoding/binary"
	"fmt"

	"github.com/middle-dev/middle-sdk/domain/errors"
)

// RecordSize is the size of a block record: a little-endian u32 address
// followed by a little-endian u32 length.
const RecordSize = 8

// EncodeRecord packs a block descriptor into its 8-byte record.
func EncodeRecord(addr, length uint32) []byte {
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(rec[0:4], addr)
	binary.LittleEndian.PutUint32(rec[4:8], length)
	return rec
}

// DecodeRecord unpacks an 8-byte record. A null address with a non-zero
// length is rejected.
func DecodeRecord(rec []byte) (addr, length uint32, err error) {
	if len(rec) != RecordSize {
		return 0, 0, &errors.DecodeError{Err: fmt.Errorf("record must be %d bytes", RecordSize), Target: "block record", Size: len(rec)}
	}
	addr = binary.LittleEndian.Uint32(rec[0:4])
	length = binary.LittleEndian.Uint32(rec[4:8])
	if addr == 0 && length > 0 {
		return 0, 0, &errors.DecodeError{Err: fmt.Errorf("null address with non-zero length (%d)", length), Target: "block record", Size: len(rec)}
	}
	return addr, length, nil
}
