package machine

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Memory is the simulator's flat, byte-addressed, little-endian data
// memory. It is initialized to 0xFF throughout, matching the original
// simulator's memset(data_memory, 0xFF, ...) so that an unwritten word
// reads back as a recognizably-uninitialized pattern rather than zero.
type Memory struct {
	bytes   []byte
	latency uint32
}

// NewMemory allocates a Memory of the given size (bytes) and records the
// given multi-cycle access latency, reported by Latency. The MEM-stage
// stall in timing/pipeline takes its length from the latency.Table's
// MemoryLatency, not from this value.
func NewMemory(size uint32, latency uint32) *Memory {
	m := &Memory{
		bytes:   make([]byte, size),
		latency: latency,
	}
	for i := range m.bytes {
		m.bytes[i] = 0xFF
	}
	return m
}

// Size returns the memory's capacity in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.bytes))
}

// Latency returns the configured multi-cycle access latency.
func (m *Memory) Latency() uint32 {
	return m.latency
}

// ReadWord reads a little-endian 32-bit word at addr. An out-of-bounds
// address is logged to stderr (spec §7, "Bounds") and returns 0 rather than
// panicking.
func (m *Memory) ReadWord(addr uint32) uint32 {
	if !m.inBounds(addr) {
		fmt.Fprintf(os.Stderr, "error: read_word out of bounds at 0x%08x (memory size %d)\n", addr, len(m.bytes))
		return 0
	}
	return binary.LittleEndian.Uint32(m.bytes[addr : addr+4])
}

// WriteWord writes value as a little-endian 32-bit word at addr. An
// out-of-bounds write is logged to stderr and suppressed.
func (m *Memory) WriteWord(addr uint32, value uint32) {
	if !m.inBounds(addr) {
		fmt.Fprintf(os.Stderr, "error: write_word out of bounds at 0x%08x (memory size %d)\n", addr, len(m.bytes))
		return
	}
	binary.LittleEndian.PutUint32(m.bytes[addr:addr+4], value)
}

// inBounds reports whether a 4-byte access starting at addr stays within
// the memory.
func (m *Memory) inBounds(addr uint32) bool {
	return addr+4 <= uint32(len(m.bytes)) && addr+4 >= addr
}

// ReadByte returns the single byte at addr, or 0 for an out-of-bounds
// address. Used by the debug dump facilities in timing/pipeline.
func (m *Memory) ReadByte(addr uint32) byte {
	if addr >= uint32(len(m.bytes)) {
		return 0
	}
	return m.bytes[addr]
}
