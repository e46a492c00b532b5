package touch

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagtapper/internal/model"
)

func rec(typ evdev.EvType, code evdev.EvCode, value int32) Record {
	return Record{Time: time.Unix(1700000000, 250000*1000), Type: typ, Code: code, Value: value}
}

func TestDecodeRecord_BothSizes(t *testing.T) {
	for _, size := range []int{RecordSize32, RecordSize64} {
		in := rec(evAbs, absX, 3071)
		out, err := DecodeRecord(EncodeRecord(size, in))
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, in.Type, out.Type)
		assert.Equal(t, in.Code, out.Code)
		assert.Equal(t, in.Value, out.Value)
		assert.True(t, in.Time.Equal(out.Time), "size %d", size)
	}
}

func TestDecodeRecord_NegativeValue(t *testing.T) {
	out, err := DecodeRecord(EncodeRecord(RecordSize64, rec(evAbs, absY, -12)))
	require.NoError(t, err)
	assert.Equal(t, int32(-12), out.Value)
}

func TestDecodeRecord_Malformed(t *testing.T) {
	_, err := DecodeRecord(make([]byte, 20))
	assert.ErrorIs(t, err, model.ErrMalformedRecord)

	b := EncodeRecord(RecordSize64, rec(evAbs, absX, 1))
	binary.LittleEndian.PutUint16(b[16:18], 0x40)
	_, err = DecodeRecord(b)
	assert.ErrorIs(t, err, model.ErrMalformedRecord)

	b = EncodeRecord(RecordSize64, rec(evAbs, absX, 1))
	binary.LittleEndian.PutUint64(b[8:16], 2_000_000)
	_, err = DecodeRecord(b)
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestDecoder_SplitChunksAndGarbage(t *testing.T) {
	d := NewDecoder(RecordSize64)
	good := EncodeRecord(RecordSize64, rec(evAbs, absX, 10))
	bad := EncodeRecord(RecordSize64, rec(evAbs, absX, 11))
	binary.LittleEndian.PutUint16(bad[16:18], 0xffff)

	stream := append(append(append([]byte{}, good...), bad...), good...)

	var got []Record
	collect := func(r Record) { got = append(got, r) }

	assert.Equal(t, 0, d.Feed(stream[:30], collect))
	assert.Len(t, got, 1)
	assert.Equal(t, 1, d.Feed(stream[30:60], collect))
	assert.Equal(t, 0, d.Feed(stream[60:], collect))
	assert.Len(t, got, 2)

	d.Feed(good[:5], collect)
	assert.Equal(t, 5, d.Discard())
	assert.Equal(t, 0, d.Discard())
}

func TestNewDecoder_DefaultsToNative(t *testing.T) {
	assert.Equal(t, NativeRecordSize, NewDecoder(0).Size())
	assert.Equal(t, RecordSize32, NewDecoder(RecordSize32).Size())
}

func TestRawSample_StickyFields(t *testing.T) {
	var s RawSample

	_, ok := s.Apply(rec(evAbs, absX, 100))
	assert.False(t, ok)
	_, ok = s.Apply(rec(evSyn, synReport, 0))
	assert.False(t, ok, "no position until both axes are known")

	s.Apply(rec(evAbs, absY, 200))
	s.Apply(rec(evAbs, absPressure, 55))
	ev, ok := s.Apply(rec(evSyn, synReport, 0))
	require.True(t, ok)
	assert.Equal(t, model.PositionEvent(100, 200, 55, ev.Time), ev)

	// Only X changes; Y and pressure stick.
	s.Apply(rec(evAbs, absMTX, 150))
	ev, ok = s.Apply(rec(evSyn, synReport, 0))
	require.True(t, ok)
	assert.Equal(t, 150, ev.X)
	assert.Equal(t, 200, ev.Y)
	assert.Equal(t, 55, ev.Pressure)
}

func TestRawSample_ButtonTransitionsOnly(t *testing.T) {
	var s RawSample

	ev, ok := s.Apply(rec(evKey, btnTouch, 1))
	require.True(t, ok)
	assert.Equal(t, model.EventButton, ev.Kind)
	assert.True(t, ev.Pressed)

	_, ok = s.Apply(rec(evKey, btnTouch, 1))
	assert.False(t, ok, "repeated press is not a transition")
	_, ok = s.Apply(rec(evKey, btnTouch, 2))
	assert.False(t, ok, "autorepeat ignored")
	_, ok = s.Apply(rec(evKey, evdev.EvCode(evdev.BTN_LEFT), 0))
	assert.False(t, ok)

	ev, ok = s.Apply(rec(evKey, btnTouch, 0))
	require.True(t, ok)
	assert.False(t, ev.Pressed)
}

func TestRawSample_SynDropped(t *testing.T) {
	var s RawSample
	s.Apply(rec(evAbs, absX, 1))
	s.Apply(rec(evAbs, absY, 2))
	s.Apply(rec(evSyn, synDropped, 0))
	s.Apply(rec(evAbs, absX, 999))
	_, ok := s.Apply(rec(evSyn, synReport, 0))
	assert.False(t, ok)

	ev, ok := s.Apply(rec(evSyn, synReport, 0))
	require.True(t, ok)
	assert.Equal(t, 1, ev.X)
}
