// Package binary packs and unpacks the little-endian layouts used by native
// and SPL program instruction data.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

var ErrShortBuffer = errors.New("binary: buffer too short")

// Writer appends little-endian fields to a growing buffer.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutKey32 writes a 32-byte key. Shorter input is zero padded and longer input
// truncated, so callers validate key sizes first.
func (w *Writer) PutKey32(key ed25519.PublicKey) {
	var fixed [ed25519.PublicKeySize]byte
	copy(fixed[:], key)
	w.buf = append(w.buf, fixed[:]...)
}

// PutCompactOptionalKey32 writes the instruction encoding of a COption<Pubkey>:
// a single 0 byte when absent, otherwise 1 followed by the key.
func (w *Writer) PutCompactOptionalKey32(key ed25519.PublicKey) {
	if len(key) == 0 {
		w.PutUint8(0)
		return
	}

	w.PutUint8(1)
	w.PutKey32(key)
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes little-endian fields from a buffer. The first failure is
// sticky and reported by Err.
type Reader struct {
	buf    []byte
	offset int
	err    error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.offset < n {
		r.err = errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, r.offset, len(r.buf)-r.offset)
		return nil
	}

	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b
}

func (r *Reader) GetUint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) GetUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) GetUint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) GetKey32() ed25519.PublicKey {
	b := r.take(ed25519.PublicKeySize)
	if b == nil {
		return nil
	}

	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}

// GetCompactOptionalKey32 is the inverse of Writer.PutCompactOptionalKey32.
func (r *Reader) GetCompactOptionalKey32() ed25519.PublicKey {
	switch tag := r.GetUint8(); {
	case r.err != nil:
		return nil
	case tag == 0:
		return nil
	case tag == 1:
		return r.GetKey32()
	default:
		r.err = errors.Errorf("binary: invalid option tag %d", tag)
		return nil
	}
}

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

func (r *Reader) Err() error {
	return r.err
}
