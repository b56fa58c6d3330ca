package snapshot

import (
	"os"
	"testing"

	"github.com/minilang/gcrt/internal/gc"
)

func TestWriteAndReadEpochRoundTrips(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []gc.Allocation{
		{Base: 0x1000, Size: 16},
		{Base: 0x2000, Size: 256},
		{Base: 0x3000, Size: 8},
	}
	if err := w.WriteEpoch(0, want); err != nil {
		t.Fatalf("WriteEpoch: %v", err)
	}

	got, err := ReadEpoch(dir, 0)
	if err != nil {
		t.Fatalf("ReadEpoch: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Base != uint64(w.Base) || got[i].Size != uint64(w.Size) {
			t.Fatalf("record %d = %+v, want base=%#x size=%d", i, got[i], w.Base, w.Size)
		}
	}
}

func TestReadEpochDetectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.WriteEpoch(0, []gc.Allocation{{Base: 0x10, Size: 8}}); err != nil {
		t.Fatalf("WriteEpoch: %v", err)
	}

	// Corrupt the checksum sidecar so ReadEpoch must notice.
	crcPath := dir + "/epoch-0000.crc16"
	if err := os.WriteFile(crcPath, []byte("dead\n"), 0o644); err != nil {
		t.Fatalf("corrupt checksum: %v", err)
	}

	if _, err := ReadEpoch(dir, 0); err == nil {
		t.Fatal("ReadEpoch did not detect the corrupted checksum")
	}
}
