package format

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"
)

// Binary encoding utilities for little-endian integers and fixed-capacity
// names stored inside block headers.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls, so there is nothing to gain from unsafe loads here.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutName writes name into the NameCap-byte field at off. Names longer than
// NameMaxLen bytes are cut at the last whole rune that fits; the rest of the
// field is zeroed so the stored name is always NUL-terminated.
func PutName(b []byte, off int, name string) {
	field := b[off : off+NameCap]
	n := TruncateName(name)
	copy(field, n)
	clear(field[len(n):])
}

// ReadName returns the name stored in the NameCap-byte field at off.
func ReadName(b []byte, off int) string {
	field := b[off : off+NameCap]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// TruncateName returns the prefix of name that PutName would store.
func TruncateName(name string) string {
	if len(name) <= NameMaxLen {
		return name
	}
	cut := NameMaxLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
