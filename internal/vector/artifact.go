package vector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Blob layout, little endian: magic (4), version (4), dimension (4), count (4), run id (16),
// then count*dimension float32 values.
const (
	blobMagic      = "KNJX"
	blobVersion    = 1
	blobHeaderSize = 4 + 4 + 4 + 4 + 16
)

// idSidecar is the CBOR document written next to the blob.
type idSidecar struct {
	RunID     []byte  `cbor:"run_id"`
	Dimension int     `cbor:"dimension"`
	Count     int     `cbor:"count"`
	Checksum  uint32  `cbor:"checksum"` // CRC-32 (IEEE) of the blob's vector payload
	IDs       []int64 `cbor:"ids"`
}

type artifact struct {
	runID      uuid.UUID
	dimensions int
	ids        []int64
	vectors    [][]float32
}

func (a *artifact) payload() []byte {
	out := make([]byte, 0, len(a.vectors)*a.dimensions*4)
	for _, v := range a.vectors {
		out = append(out, float32SliceToBytes(v)...)
	}
	return out
}

func (a *artifact) save(indexPath, idsPath string) error {
	if indexPath == "" || idsPath == "" {
		return fmt.Errorf("index and ids paths are required")
	}
	payload := a.payload()

	var blob bytes.Buffer
	blob.Grow(blobHeaderSize + len(payload))
	blob.WriteString(blobMagic)
	for _, v := range []uint32{blobVersion, uint32(a.dimensions), uint32(len(a.ids))} {
		if err := binary.Write(&blob, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	blob.Write(a.runID[:])
	blob.Write(payload)

	sidecar, err := cbor.Marshal(&idSidecar{
		RunID:     a.runID[:],
		Dimension: a.dimensions,
		Count:     len(a.ids),
		Checksum:  crc32.ChecksumIEEE(payload),
		IDs:       a.ids,
	})
	if err != nil {
		return fmt.Errorf("encode id sidecar: %w", err)
	}

	if err := writeFileAtomic(indexPath, blob.Bytes()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := writeFileAtomic(idsPath, sidecar); err != nil {
		return fmt.Errorf("write ids: %w", err)
	}
	return nil
}

func loadArtifact(indexPath, idsPath string) (*artifact, error) {
	blob, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrArtifactMismatch, err)
	}
	raw, err := os.ReadFile(idsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read ids: %v", ErrArtifactMismatch, err)
	}

	if len(blob) < blobHeaderSize || string(blob[:4]) != blobMagic {
		return nil, fmt.Errorf("%w: %s is not an index blob", ErrArtifactMismatch, indexPath)
	}
	version := binary.LittleEndian.Uint32(blob[4:8])
	if version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", ErrArtifactMismatch, version)
	}
	dim := int(binary.LittleEndian.Uint32(blob[8:12]))
	count := int(binary.LittleEndian.Uint32(blob[12:16]))
	runID, err := uuid.FromBytes(blob[16:32])
	if err != nil {
		return nil, fmt.Errorf("%w: run id: %v", ErrArtifactMismatch, err)
	}
	payload := blob[blobHeaderSize:]
	if dim <= 0 || len(payload) != count*dim*4 {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d x %d", ErrArtifactMismatch, len(payload), count, dim)
	}

	var side idSidecar
	if err := cbor.Unmarshal(raw, &side); err != nil {
		return nil, fmt.Errorf("%w: decode ids: %v", ErrArtifactMismatch, err)
	}
	switch {
	case side.Count != count || len(side.IDs) != count:
		return nil, fmt.Errorf("%w: index has %d vectors, ids has %d", ErrArtifactMismatch, count, len(side.IDs))
	case side.Dimension != dim:
		return nil, fmt.Errorf("%w: index dimension %d, ids dimension %d", ErrArtifactMismatch, dim, side.Dimension)
	case !bytes.Equal(side.RunID, runID[:]):
		return nil, fmt.Errorf("%w: run ids differ", ErrArtifactMismatch)
	case side.Checksum != crc32.ChecksumIEEE(payload):
		return nil, fmt.Errorf("%w: vector checksum differs", ErrArtifactMismatch)
	}

	a := &artifact{
		runID:      runID,
		dimensions: dim,
		ids:        side.IDs,
		vectors:    make([][]float32, count),
	}
	seen := make(map[int64]struct{}, count)
	for i, id := range side.IDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: id %d listed twice", ErrArtifactMismatch, id)
		}
		seen[id] = struct{}{}
		a.vectors[i] = bytesToFloat32Slice(payload[i*dim*4 : (i+1)*dim*4])
	}
	return a, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return errors.Join(werr, os.Remove(tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
