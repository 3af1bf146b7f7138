package abi

import "testing"

// BenchmarkTransferRelease measures the guest-to-host hand-off that every
// entry point and host call performs.
func BenchmarkTransferRelease(b *testing.B) {
	a := NewArena()
	data := make([]byte, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk, err := a.TransferOut(data)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Release(blk.Addr, blk.Len); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRecordRoundtrip measures record pack/unpack.
func BenchmarkRecordRoundtrip(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		addr, length, _ := DecodeRecord(EncodeRecord(0x12345678, 256))
		_, _ = addr, length
	}
}
