//go:build !wasip1

package abi

// syntheticBase keeps address 0 reserved for the empty block.
const syntheticBase = 1 << 16

// addressSpace hands out synthetic, never-reused, 8-byte aligned addresses so
// the protocol can be exercised natively.
type addressSpace struct {
	cursor uint32
}

func (s *addressSpace) assign(buf []byte) uint32 {
	if s.cursor == 0 {
		s.cursor = syntheticBase
	}
	addr := s.cursor
	s.cursor += (uint32(len(buf)) + 7) &^ 7
	return addr
}
