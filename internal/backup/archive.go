package backup

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/crc64nvme"

	"github.com/koradi/koradi-admin/internal/store"
)

const (
	// Archive file format constants
	archiveMagic   = "KRBK0001"
	archiveVersion = uint32(1)
	headerSize     = 16 // 8 bytes magic + 4 bytes version + 4 bytes reserved
	trailerSize    = 16 // 8 bytes payload length + 8 bytes CRC64

	timestampLayout = "20060102T150405Z"
)

// archiveName builds the file name for an archive taken at the given time.
// The timestamp orders lexicographically, so a name sort is a time sort.
func archiveName(takenAt time.Time) string {
	return fmt.Sprintf("koradi-%s.krbk", takenAt.UTC().Format(timestampLayout))
}

// writeArchive serializes the snapshot and writes it atomically.
//
// Archive format (total: 16 + payload_len + 16 bytes):
// - Magic (8 bytes) - "KRBK0001"
// - Version (4 bytes, uint32)
// - Reserved (4 bytes) - for future use
// - Payload (variable) - zstd-compressed JSON snapshot
// - Length (8 bytes, uint64) - payload length in bytes
// - CRC64 (8 bytes, uint64) - CRC64-NVME checksum of the payload
func writeArchive(path string, snap *store.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	payload := enc.EncodeAll(raw, nil)
	enc.Close()

	header := make([]byte, headerSize)
	copy(header[0:8], archiveMagic)
	binary.LittleEndian.PutUint32(header[8:12], archiveVersion)

	trailer := make([]byte, trailerSize)
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(len(payload)))
	binary.LittleEndian.PutUint64(trailer[8:16], computeCRC64(payload))

	// Write to a temp file in the same directory and rename, so a crash
	// mid-write never leaves a half archive under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".koradi-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	for _, chunk := range [][]byte{header, payload, trailer} {
		if _, err := tmp.Write(chunk); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to write archive: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename archive: %w", err)
	}

	return nil
}

// readArchive validates and decodes one archive file.
func readArchive(path string) (*store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("archive too short: %d bytes", len(data))
	}

	if magic := string(data[0:8]); magic != archiveMagic {
		return nil, fmt.Errorf("invalid magic: %q", magic)
	}
	if version := binary.LittleEndian.Uint32(data[8:12]); version != archiveVersion {
		return nil, fmt.Errorf("unsupported version: %d", version)
	}

	payload := data[headerSize : len(data)-trailerSize]
	storedLen := binary.LittleEndian.Uint64(data[len(data)-trailerSize : len(data)-8])
	if storedLen != uint64(len(payload)) {
		return nil, fmt.Errorf("payload length mismatch: stored=%d actual=%d", storedLen, len(payload))
	}
	storedCRC := binary.LittleEndian.Uint64(data[len(data)-8:])
	if computedCRC := computeCRC64(payload); storedCRC != computedCRC {
		return nil, fmt.Errorf("CRC64 mismatch: stored=%x computed=%x", storedCRC, computedCRC)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// computeCRC64 computes CRC64-NVME checksum
func computeCRC64(data []byte) uint64 {
	h := crc64nvme.New()
	h.Write(data)
	return h.Sum64()
}
