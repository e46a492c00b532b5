package touch

// Linux input_event decoding. The kernel struct is
//
//	struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
//
// so a record is 16 bytes where timeval holds two 32-bit longs and 24 bytes
// where it holds two 64-bit longs. Everything is host (little) endian.

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"github.com/holoplot/go-evdev"

	"tagtapper/internal/model"
)

const (
	RecordSize32 = 16
	RecordSize64 = 24

	// NativeRecordSize matches the running kernel's timeval width.
	NativeRecordSize = 8 + 2*int(unsafe.Sizeof(uintptr(0)))

	// evMax is the highest event type the kernel defines (EV_MAX).
	evMax = 0x1f
)

// Record is one decoded input_event.
type Record struct {
	Time  time.Time
	Type  evdev.EvType
	Code  evdev.EvCode
	Value int32
}

// DecodeRecord decodes a single 16- or 24-byte record. Any other length, an
// unknown event type, or an out-of-range microsecond field yields
// ErrMalformedRecord.
func DecodeRecord(b []byte) (Record, error) {
	var sec, usec int64
	var tail []byte
	switch len(b) {
	case RecordSize64:
		sec = int64(binary.LittleEndian.Uint64(b[0:8]))
		usec = int64(binary.LittleEndian.Uint64(b[8:16]))
		tail = b[16:24]
	case RecordSize32:
		sec = int64(int32(binary.LittleEndian.Uint32(b[0:4])))
		usec = int64(int32(binary.LittleEndian.Uint32(b[4:8])))
		tail = b[8:16]
	default:
		return Record{}, fmt.Errorf("touch: %d byte record: %w", len(b), model.ErrMalformedRecord)
	}

	typ := binary.LittleEndian.Uint16(tail[0:2])
	if typ > evMax {
		return Record{}, fmt.Errorf("touch: event type %#x: %w", typ, model.ErrMalformedRecord)
	}
	if usec < 0 || usec >= 1_000_000 {
		return Record{}, fmt.Errorf("touch: usec %d: %w", usec, model.ErrMalformedRecord)
	}

	return Record{
		Time:  time.Unix(sec, usec*1000),
		Type:  evdev.EvType(typ),
		Code:  evdev.EvCode(binary.LittleEndian.Uint16(tail[2:4])),
		Value: int32(binary.LittleEndian.Uint32(tail[4:8])),
	}, nil
}

// EncodeRecord is the inverse of DecodeRecord; the calibration replay and
// tests use it to synthesize device streams.
func EncodeRecord(size int, rec Record) []byte {
	b := make([]byte, size)
	sec := rec.Time.Unix()
	usec := int64(rec.Time.Nanosecond() / 1000)
	var tail []byte
	if size == RecordSize32 {
		binary.LittleEndian.PutUint32(b[0:4], uint32(int32(sec)))
		binary.LittleEndian.PutUint32(b[4:8], uint32(int32(usec)))
		tail = b[8:16]
	} else {
		binary.LittleEndian.PutUint64(b[0:8], uint64(sec))
		binary.LittleEndian.PutUint64(b[8:16], uint64(usec))
		tail = b[16:24]
	}
	binary.LittleEndian.PutUint16(tail[0:2], uint16(rec.Type))
	binary.LittleEndian.PutUint16(tail[2:4], uint16(rec.Code))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(rec.Value))
	return b
}

// Decoder splits a byte stream into records. Reads from the device may end
// mid-record; the remainder is carried into the next Feed.
type Decoder struct {
	size int
	buf  []byte
}

// NewDecoder returns a decoder for size-byte records (RecordSize32 or
// RecordSize64). Any other size selects NativeRecordSize.
func NewDecoder(size int) *Decoder {
	if size != RecordSize32 && size != RecordSize64 {
		size = NativeRecordSize
	}
	return &Decoder{size: size}
}

// Size returns the record size in bytes.
func (d *Decoder) Size() int { return d.size }

// Feed appends chunk and calls fn for every complete, well-formed record.
// It returns the number of malformed records that were skipped.
func (d *Decoder) Feed(chunk []byte, fn func(Record)) int {
	d.buf = append(d.buf, chunk...)
	bad := 0
	off := 0
	for len(d.buf)-off >= d.size {
		rec, err := DecodeRecord(d.buf[off : off+d.size])
		off += d.size
		if err != nil {
			bad++
			continue
		}
		fn(rec)
	}
	d.buf = append(d.buf[:0], d.buf[off:]...)
	return bad
}

// Discard drops a trailing partial record and reports how many bytes it had.
func (d *Decoder) Discard() int {
	n := len(d.buf)
	d.buf = d.buf[:0]
	return n
}
