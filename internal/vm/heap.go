package vm

import "encoding/binary"

// Heap is the arena of freely allocated/deallocated byte-buffer sections
// spec.md §4.F/§5 describes. Section index 0 is an ordinary allocation, not
// a null sentinel; a zero-length section occupying a slot is what "null"
// means here, and using one raises NullPointerException. An index that was
// never allocated, or was deallocated and not reissued, raises
// SegmentationFault. The arena never shrinks; freed slots go on a free list
// and the next Allocate reissues the most recently freed one. An index kept
// past Deallocate therefore faults only until that slot is reissued; after
// that it silently refers to the new section.
type Heap struct {
	sections [][]byte // nil entry = unallocated or freed
	free     []uint64
}

func NewHeap() *Heap { return &Heap{} }

// Allocate reserves size bytes, zero-initialized, and returns its section
// index. size == 0 is legal and produces a "null" section.
func (h *Heap) Allocate(size uint64) uint64 {
	buf := make([]byte, size)
	if n := len(h.free); n > 0 {
		idx := h.free[n-1]
		h.free = h.free[:n-1]
		h.sections[idx] = buf
		return idx
	}
	idx := uint64(len(h.sections))
	h.sections = append(h.sections, buf)
	return idx
}

// Deallocate frees a section, making its index eligible for reuse.
func (h *Heap) Deallocate(idx uint64) *HardError {
	if idx >= uint64(len(h.sections)) || h.sections[idx] == nil {
		return segmentationFault("deallocate of unallocated heap section %d", idx)
	}
	h.sections[idx] = nil
	h.free = append(h.free, idx)
	return nil
}

// bounds resolves idx to its backing slice, applying the SegmentationFault/
// NullPointerException distinction every heap access shares.
func (h *Heap) bounds(idx uint64) ([]byte, *HardError) {
	if idx >= uint64(len(h.sections)) || h.sections[idx] == nil {
		return nil, segmentationFault("access to unallocated heap section %d", idx)
	}
	sec := h.sections[idx]
	if len(sec) == 0 {
		return nil, nullPointerException(idx)
	}
	return sec, nil
}

// ReadAt reads length bytes at offset from section idx.
func (h *Heap) ReadAt(idx, offset, length uint64) ([]byte, *HardError) {
	sec, err := h.bounds(idx)
	if err != nil {
		return nil, err
	}
	if offset+length > uint64(len(sec)) || offset+length < offset {
		return nil, segmentationFault(
			"read of %d byte(s) at offset %d overruns heap section %d (len %d)", length, offset, idx, len(sec))
	}
	return sec[offset : offset+length], nil
}

// WriteAt writes data at offset into section idx.
func (h *Heap) WriteAt(idx, offset uint64, data []byte) *HardError {
	sec, err := h.bounds(idx)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(sec)) || offset+uint64(len(data)) < offset {
		return segmentationFault(
			"write of %d byte(s) at offset %d overruns heap section %d (len %d)", len(data), offset, idx, len(sec))
	}
	copy(sec[offset:], data)
	return nil
}

// ReadU64At reads an 8-byte big-endian integer at offset — the shape every
// spill-table slot and string length header takes.
func (h *Heap) ReadU64At(idx, offset uint64) (uint64, *HardError) {
	raw, err := h.ReadAt(idx, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

// WriteU64At writes an 8-byte big-endian integer at offset.
func (h *Heap) WriteU64At(idx, offset, v uint64) *HardError {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return h.WriteAt(idx, offset, b[:])
}

// Set fills length bytes starting at offset 0 of section idx with b.
func (h *Heap) Set(idx uint64, b byte, length uint64) *HardError {
	sec, err := h.bounds(idx)
	if err != nil {
		return err
	}
	if length > uint64(len(sec)) {
		return segmentationFault("memset of %d byte(s) overruns heap section %d (len %d)", length, idx, len(sec))
	}
	for i := uint64(0); i < length; i++ {
		sec[i] = b
	}
	return nil
}

// Store materializes a fresh, independent section containing a copy of raw
// — how StoreConstantArray turns a constants-table entry into a runtime
// heap value.
func (h *Heap) Store(raw []byte) uint64 {
	idx := h.Allocate(uint64(len(raw)))
	copy(h.sections[idx], raw)
	return idx
}
