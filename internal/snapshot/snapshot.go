// Package snapshot dumps a point-in-time copy of a collector's live
// registry to a checksummed ar(1) archive, for cmd/gcrt-snapshot
// (SPEC_FULL.md §11.3). It does not participate in collection itself;
// it only reads gc.Collector.Snapshot().
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blakesmith/ar"
	"github.com/gofrs/flock"
	"github.com/sigurn/crc16"

	"github.com/minilang/gcrt/internal/gc"
)

// record is the fixed-width on-disk form of a single gc.Allocation.
// Base and Size are stored as little-endian uint64 regardless of host
// pointer width, so a snapshot taken on one machine can still be parsed
// on another.
type record struct {
	Base uint64
	Size uint64
}

const recordSize = 16

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Writer writes collector snapshots into a directory, one ar(1) archive
// file per epoch, guarded by an advisory file lock on the directory for
// the duration of each write (a long-running mutator and an
// operator-invoked dump could otherwise race on the same files).
type Writer struct {
	dir  string
	lock *flock.Flock
}

// Open prepares dir to receive snapshots, creating it if necessary.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	return &Writer{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// WriteEpoch serializes allocations into epoch-XXXX (an ar archive with
// a single "records" member) plus a sibling epoch-XXXX.crc16 file
// holding the CRC16/XMODEM checksum of that member's payload, so a
// truncated or corrupted snapshot is detected on read rather than
// silently misinterpreted.
func (w *Writer) WriteEpoch(epoch int, allocations []gc.Allocation) error {
	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("snapshot: lock: %w", err)
	}
	defer w.lock.Unlock()

	payload, err := encodeRecords(allocations)
	if err != nil {
		return err
	}

	archivePath := filepath.Join(w.dir, epochName(epoch))
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", archivePath, err)
	}
	defer f.Close()

	aw := ar.NewWriter(f)
	if err := aw.WriteGlobalHeader(); err != nil {
		return fmt.Errorf("snapshot: ar global header: %w", err)
	}
	hdr := &ar.Header{
		Name:    "records",
		ModTime: time.Now(),
		Mode:    0o644,
		Size:    int64(len(payload)),
	}
	if err := aw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("snapshot: ar member header: %w", err)
	}
	if _, err := aw.Write(payload); err != nil {
		return fmt.Errorf("snapshot: ar member write: %w", err)
	}

	checksum := crc16.Checksum(payload, crcTable)
	crcPath := archivePath + ".crc16"
	return os.WriteFile(crcPath, []byte(fmt.Sprintf("%04x\n", checksum)), 0o644)
}

func epochName(epoch int) string {
	return fmt.Sprintf("epoch-%04d", epoch)
}

func encodeRecords(allocations []gc.Allocation) ([]byte, error) {
	buf := make([]byte, 0, len(allocations)*recordSize)
	for _, a := range allocations {
		var tmp [recordSize]byte
		binary.LittleEndian.PutUint64(tmp[0:8], uint64(a.Base))
		binary.LittleEndian.PutUint64(tmp[8:16], uint64(a.Size))
		buf = append(buf, tmp[:]...)
	}
	return buf, nil
}

// ReadEpoch is the inverse of WriteEpoch, used by operators inspecting a
// dump after the fact. It verifies the sibling checksum before decoding.
func ReadEpoch(dir string, epoch int) ([]record, error) {
	archivePath := filepath.Join(dir, epochName(epoch))
	crcPath := archivePath + ".crc16"

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", archivePath, err)
	}
	defer f.Close()

	archiveReader := ar.NewReader(f)
	hdr, err := archiveReader.Next()
	if err != nil {
		return nil, fmt.Errorf("snapshot: ar header: %w", err)
	}
	if hdr.Name != "records" {
		return nil, fmt.Errorf("snapshot: unexpected member %q", hdr.Name)
	}
	payload := make([]byte, hdr.Size)
	if _, err := io.ReadFull(archiveReader, payload); err != nil {
		return nil, fmt.Errorf("snapshot: ar member read: %w", err)
	}

	wantHex, err := os.ReadFile(crcPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read checksum: %w", err)
	}
	got := crc16.Checksum(payload, crcTable)
	if want := bytes.TrimSpace(wantHex); fmt.Sprintf("%04x", got) != string(want) {
		return nil, fmt.Errorf("snapshot: checksum mismatch for %s: got %04x want %s", archivePath, got, want)
	}

	if len(payload)%recordSize != 0 {
		return nil, fmt.Errorf("snapshot: truncated record stream (%d bytes)", len(payload))
	}
	records := make([]record, 0, len(payload)/recordSize)
	for off := 0; off < len(payload); off += recordSize {
		records = append(records, record{
			Base: binary.LittleEndian.Uint64(payload[off : off+8]),
			Size: binary.LittleEndian.Uint64(payload[off+8 : off+16]),
		})
	}
	return records, nil
}
