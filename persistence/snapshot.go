// Package persistence stores binary snapshots of the category state for
// fast cold starts: the whole store is framed with a magic/version header,
// zstd-compressed, and protected by a CRC32-Castagnoli checksum. Sidecar
// files remain the source of truth; a snapshot is an accelerator and is
// discarded on any validation failure.
package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/vdd9/frvm/internal/fs"
	"github.com/vdd9/frvm/internal/hash"
	"github.com/vdd9/frvm/model"
	"github.com/vdd9/frvm/state"
)

var (
	snapshotMagic   = [4]byte{'F', 'V', 'S', '1'}
	snapshotVersion = uint16(1)
)

// ErrBadSnapshot is returned for corrupt or incompatible snapshot files.
var ErrBadSnapshot = errors.New("bad snapshot")

// Write frames, compresses and checksums snap onto w.
//
// Layout: magic(4) version(2) reserved(2) crc32c(4) payloadLen(8),
// followed by the zstd-compressed payload.
func Write(w io.Writer, snap *state.SnapshotData) error {
	payload, err := encodePayload(snap)
	if err != nil {
		return err
	}

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	if err != nil {
		return err
	}
	if _, err := enc.Write(payload); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	var hdr [20]byte
	copy(hdr[0:4], snapshotMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], snapshotVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], hash.CRC32C(compressed.Bytes()))
	binary.LittleEndian.PutUint64(hdr[12:20], uint64(compressed.Len()))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(compressed.Bytes())
	return err
}

// Read validates and decodes a snapshot written by Write.
func Read(r io.Reader) (*state.SnapshotData, error) {
	var hdr [20]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrBadSnapshot, err)
	}
	if !bytes.Equal(hdr[0:4], snapshotMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}
	wantSum := binary.LittleEndian.Uint32(hdr[8:12])
	payloadLen := binary.LittleEndian.Uint64(hdr[12:20])

	compressed := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("%w: short payload: %w", ErrBadSnapshot, err)
	}
	if sum := hash.CRC32C(compressed); sum != wantSum {
		return nil, fmt.Errorf("%w: checksum mismatch (want %08x, got %08x)", ErrBadSnapshot, wantSum, sum)
	}

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	defer dec.Close()
	payload, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrBadSnapshot, err)
	}
	return decodePayload(payload)
}

// SaveFile writes the snapshot to path with an atomic replace.
func SaveFile(fsys fs.FileSystem, path string, snap *state.SnapshotData) error {
	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		return err
	}
	return fs.WriteAtomic(fsys, path, buf.Bytes(), 0o644)
}

// LoadFile reads a snapshot from path.
func LoadFile(fsys fs.FileSystem, path string) (*state.SnapshotData, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}

func encodePayload(snap *state.SnapshotData) ([]byte, error) {
	var buf bytes.Buffer

	writeUint32(&buf, uint32(len(snap.Keys)))
	for _, k := range snap.Keys {
		writeBytes(&buf, []byte(k))
	}

	writeUint32(&buf, uint32(len(snap.Partitions)))
	for _, ps := range snap.Partitions {
		if len(ps.Yes) != len(snap.Keys) || len(ps.No) != len(snap.Keys) {
			return nil, fmt.Errorf("partition %q: bitmap table does not match category table", ps.Name)
		}
		writeBytes(&buf, []byte(ps.Name))
		writeUint32(&buf, uint32(len(ps.Entities)))
		for _, id := range ps.Entities {
			writeBytes(&buf, []byte(id))
		}
		for i := range snap.Keys {
			writeBytes(&buf, ps.Yes[i])
			writeBytes(&buf, ps.No[i])
		}
	}
	return buf.Bytes(), nil
}

func decodePayload(payload []byte) (*state.SnapshotData, error) {
	r := &payloadReader{data: payload}

	nkeys := r.uint32()
	snap := &state.SnapshotData{Keys: make([]string, 0, nkeys)}
	for i := uint32(0); i < nkeys; i++ {
		snap.Keys = append(snap.Keys, string(r.bytes()))
	}

	nparts := r.uint32()
	for i := uint32(0); i < nparts; i++ {
		ps := state.PartitionSnapshot{
			Name: model.Partition(r.bytes()),
			Yes:  make([][]byte, nkeys),
			No:   make([][]byte, nkeys),
		}
		nents := r.uint32()
		ps.Entities = make([]model.EntityID, 0, nents)
		for j := uint32(0); j < nents; j++ {
			ps.Entities = append(ps.Entities, model.EntityID(r.bytes()))
		}
		for j := uint32(0); j < nkeys; j++ {
			ps.Yes[j] = r.bytes()
			ps.No[j] = r.bytes()
		}
		snap.Partitions = append(snap.Partitions, ps)
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, r.err)
	}
	return snap, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
}

type payloadReader struct {
	data []byte
	pos  int
	err  error
}

func (r *payloadReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("truncated payload at offset %d", r.pos)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *payloadReader) bytes() []byte {
	n := int(r.uint32())
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("truncated payload at offset %d", r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b
}
