package payload

import (
	"fmt"

	"fortio.org/safecast"
	flatbuffers "github.com/google/flatbuffers/go"
)

// DecodeError reports a payload that is not a valid diagnostic description.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string { return "invalid diagnostic description payload: " + e.Msg }

// maxDopDepth bounds Dop -> Param -> Dop nesting while decoding. Offsets are
// 32-bit and may wrap, so a hostile buffer could otherwise recurse forever.
const maxDopDepth = 64

// table is a read view over one FlatBuffers table. Accessors panic with a
// *DecodeError (or a runtime bounds error) on malformed input; FromPayload
// recovers both.
type table struct {
	t flatbuffers.Table
}

func rootTable(buf []byte) table {
	return table{flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}}
}

func fail(format string, args ...any) {
	panic(&DecodeError{Msg: fmt.Sprintf(format, args...)})
}

// field returns the table-relative offset of slot, or 0 when it is absent.
func (t table) field(slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.t.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
}

func (t table) str(slot int) string {
	o := t.field(slot)
	if o == 0 {
		return ""
	}
	return string(t.t.ByteVector(o + t.t.Pos))
}

func (t table) bytes(slot int) []byte {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.ByteVector(o + t.t.Pos)
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (t table) child(slot int) (table, bool) {
	o := t.field(slot)
	if o == 0 {
		return table{}, false
	}
	return table{flatbuffers.Table{Bytes: t.t.Bytes, Pos: t.t.Indirect(o + t.t.Pos)}}, true
}

// vector returns the absolute start and element count of a vector field.
func (t table) vector(slot, elemSize int) (flatbuffers.UOffsetT, int) {
	o := t.field(slot)
	if o == 0 {
		return 0, 0
	}
	start, n := t.t.Vector(o), t.t.VectorLen(o)
	if n < 0 || int64(start)+int64(n)*int64(elemSize) > int64(len(t.t.Bytes)) {
		fail("vector in slot %d overruns the buffer (%d elements)", slot, n)
	}
	return start, n
}

func elemOffset(start flatbuffers.UOffsetT, i, size int) flatbuffers.UOffsetT {
	off, err := safecast.Conv[flatbuffers.UOffsetT](i * size)
	if err != nil {
		fail("element %d: %v", i, err)
	}
	return start + off
}

func (t table) tables(slot int) []table {
	start, n := t.vector(slot, flatbuffers.SizeUOffsetT)
	if n == 0 {
		return nil
	}
	out := make([]table, n)
	for i := range out {
		pos := elemOffset(start, i, flatbuffers.SizeUOffsetT)
		out[i] = table{flatbuffers.Table{Bytes: t.t.Bytes, Pos: t.t.Indirect(pos)}}
	}
	return out
}

func (t table) strs(slot int) []string {
	start, n := t.vector(slot, flatbuffers.SizeUOffsetT)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = string(t.t.ByteVector(elemOffset(start, i, flatbuffers.SizeUOffsetT)))
	}
	return out
}

func (t table) float64s(slot int) []float64 {
	start, n := t.vector(slot, 8)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = t.t.GetFloat64(elemOffset(start, i, 8))
	}
	return out
}

func (t table) flag(slot int) bool {
	if o := t.field(slot); o != 0 {
		return t.t.GetBool(o + t.t.Pos)
	}
	return false
}

func (t table) u8(slot int) uint8 {
	if o := t.field(slot); o != 0 {
		return t.t.GetUint8(o + t.t.Pos)
	}
	return 0
}

func (t table) u32(slot int) uint32 {
	if o := t.field(slot); o != 0 {
		return t.t.GetUint32(o + t.t.Pos)
	}
	return 0
}

func (t table) u64(slot int) uint64 {
	if o := t.field(slot); o != 0 {
		return t.t.GetUint64(o + t.t.Pos)
	}
	return 0
}

func (t table) optU32(slot int) *uint32 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.GetUint32(o + t.t.Pos)
	return &v
}

func (t table) optI32(slot int) *int32 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.GetInt32(o + t.t.Pos)
	return &v
}

func (t table) optF64(slot int) *float64 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.GetFloat64(o + t.t.Pos)
	return &v
}

func (t table) optU8(slot int) *uint8 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.GetUint8(o + t.t.Pos)
	return &v
}

// union reads a union field whose type tag sits in typeSlot and whose value
// follows it. ok is false for NONE or a missing value.
func (t table) union(typeSlot int) (uint8, table, bool) {
	tag := t.u8(typeSlot)
	if tag == 0 {
		return 0, table{}, false
	}
	v, ok := t.child(typeSlot + 1)
	return tag, v, ok
}

// enumName returns the spelling of the enum in slot, or "" when absent.
func (t table) enumName(names nameEnum, slot int) string {
	if v := t.optU8(slot); v != nil {
		return names.name(*v)
	}
	return ""
}

// named is the read side of encoder.named.
func (t table) named(names nameEnum, slot, nameSlot int) string {
	if s := t.str(nameSlot); s != "" {
		return s
	}
	return t.enumName(names, slot)
}

func (t table) optBool(slot int) *bool {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	v := t.t.GetBool(o + t.t.Pos)
	return &v
}

func decodeEach[T any](ts []table, fn func(table) T) []T {
	if len(ts) == 0 {
		return nil
	}
	out := make([]T, len(ts))
	for i, t := range ts {
		out[i] = fn(t)
	}
	return out
}
