package payload

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// encoder wraps a flatbuffers.Builder. Every child (string, vector, table)
// must be finished before the parent object is started; the build* methods
// in encode.go respect that ordering.
type encoder struct {
	b *flatbuffers.Builder
}

func (e *encoder) str(s string) flatbuffers.UOffsetT {
	if s == "" {
		return 0
	}
	return e.b.CreateString(s)
}

func (e *encoder) bytes(v []byte) flatbuffers.UOffsetT {
	if len(v) == 0 {
		return 0
	}
	return e.b.CreateByteVector(v)
}

func (e *encoder) strs(ss []string) flatbuffers.UOffsetT {
	if len(ss) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(ss))
	for i, s := range ss {
		offs[i] = e.b.CreateString(s)
	}
	return e.vec(offs)
}

func (e *encoder) float64s(vs []float64) flatbuffers.UOffsetT {
	if len(vs) == 0 {
		return 0
	}
	e.b.StartVector(8, len(vs), 8)
	for i := len(vs) - 1; i >= 0; i-- {
		e.b.PrependFloat64(vs[i])
	}
	return e.b.EndVector(len(vs))
}

func (e *encoder) vec(offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	if len(offs) == 0 {
		return 0
	}
	e.b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		e.b.PrependUOffsetT(offs[i])
	}
	return e.b.EndVector(len(offs))
}

// encodeEach builds one table per item and returns the vector of them.
func encodeEach[T any](e *encoder, items []T, build func(*T) flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	if len(items) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(items))
	for i := range items {
		offs[i] = build(&items[i])
	}
	return e.vec(offs)
}

func (e *encoder) start(numFields int) { e.b.StartObject(numFields) }

func (e *encoder) end() flatbuffers.UOffsetT { return e.b.EndObject() }

// ref stores an offset; zero means the child was empty and is left out.
func (e *encoder) ref(slot int, off flatbuffers.UOffsetT) {
	e.b.PrependUOffsetTSlot(slot, off, 0)
}

func (e *encoder) flag(slot int, v bool) { e.b.PrependBoolSlot(slot, v, false) }
func (e *encoder) u8(slot int, v uint8) { e.b.PrependUint8Slot(slot, v, 0) }
func (e *encoder) u32(slot int, v uint32) { e.b.PrependUint32Slot(slot, v, 0) }
func (e *encoder) u64(slot int, v uint64) { e.b.PrependUint64Slot(slot, v, 0) }

// Optional scalars are written even when they hold the default so that
// presence survives the round trip.

func (e *encoder) optU32(slot int, v *uint32) {
	if v != nil {
		e.b.PrependUint32(*v)
		e.b.Slot(slot)
	}
}

func (e *encoder) optI32(slot int, v *int32) {
	if v != nil {
		e.b.PrependInt32(*v)
		e.b.Slot(slot)
	}
}

func (e *encoder) optF64(slot int, v *float64) {
	if v != nil {
		e.b.PrependFloat64(*v)
		e.b.Slot(slot)
	}
}

func (e *encoder) optU8(slot int, v *uint8) {
	if v != nil {
		e.b.PrependUint8(*v)
		e.b.Slot(slot)
	}
}

// enum stores a wire enum value even when it equals the schema default.
func (e *encoder) enum(slot int, v uint8) {
	e.b.PrependUint8(v)
	e.b.Slot(slot)
}

// named resolves s against names. A known spelling comes back as the wire
// value; any other non-empty spelling is written out as a string for the
// table's name slot.
func (e *encoder) named(names nameEnum, s string) (*uint8, flatbuffers.UOffsetT) {
	if s == "" {
		return nil, 0
	}
	if v, ok := names.wire(s); ok {
		return &v, 0
	}
	return nil, e.str(s)
}

func (e *encoder) optBool(slot int, v *bool) {
	if v != nil {
		e.b.PrependBool(*v)
		e.b.Slot(slot)
	}
}
