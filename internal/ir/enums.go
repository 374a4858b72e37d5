package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// enumNames maps a small enum to its ODX spelling. Index is the enum value.
type enumNames []string

func (n enumNames) name(v uint8) string {
	if int(v) < len(n) {
		return n[v]
	}
	return fmt.Sprintf("UNKNOWN(%d)", v)
}

func (n enumNames) lookup(s string) (uint8, bool) {
	for i, name := range n {
		if name == s {
			return uint8(i), true
		}
	}
	return 0, false
}

// LayerKind tags the ODX layer category a ParentRef points at.
type LayerKind uint8

const (
	LayerProtocol LayerKind = iota
	LayerFunctionalGroup
	LayerBaseVariant
	LayerEcuVariant
	LayerEcuSharedData
)

var layerKindNames = enumNames{
	"PROTOCOL",
	"FUNCTIONAL-GROUP",
	"BASE-VARIANT",
	"ECU-VARIANT",
	"ECU-SHARED-DATA",
}

func (k LayerKind) String() string { return layerKindNames.name(uint8(k)) }

func (k LayerKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *LayerKind) UnmarshalText(b []byte) error {
	v, err := ParseLayerKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseLayerKind(s string) (LayerKind, error) {
	if v, ok := layerKindNames.lookup(s); ok {
		return LayerKind(v), nil
	}
	return 0, fmt.Errorf("unknown layer kind %q", s)
}

// ParamType mirrors the xsi:type of an ODX PARAM.
type ParamType uint8

const (
	ParamCodedConst ParamType = iota
	ParamNrcConst
	ParamValue
	ParamPhysConst
	ParamMatchingRequestParam
	ParamReserved
	ParamSystem
	ParamLengthKey
	ParamDynamic
	ParamTableKey
	ParamTableStruct
	ParamTableEntry
)

var paramTypeNames = enumNames{
	"CODED-CONST",
	"NRC-CONST",
	"VALUE",
	"PHYS-CONST",
	"MATCHING-REQUEST-PARAM",
	"RESERVED",
	"SYSTEM",
	"LENGTH-KEY",
	"DYNAMIC",
	"TABLE-KEY",
	"TABLE-STRUCT",
	"TABLE-ENTRY",
}

func (t ParamType) String() string { return paramTypeNames.name(uint8(t)) }

func (t ParamType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ParamType) UnmarshalText(b []byte) error {
	v, err := ParseParamType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseParamType(s string) (ParamType, error) {
	if v, ok := paramTypeNames.lookup(s); ok {
		return ParamType(v), nil
	}
	return 0, fmt.Errorf("unknown param type %q", s)
}

// ParamTypeFromXSI is the lenient variant used by the ODX reader:
// anything unrecognised is treated as a VALUE param.
func ParamTypeFromXSI(s string) ParamType {
	if v, ok := paramTypeNames.lookup(s); ok {
		return ParamType(v)
	}
	return ParamValue
}

type ResponseKind uint8

const (
	ResponsePositive ResponseKind = iota
	ResponseNegative
	ResponseGlobalNegative
)

var responseKindNames = enumNames{
	"POS-RESPONSE",
	"NEG-RESPONSE",
	"GLOBAL-NEG-RESPONSE",
}

func (k ResponseKind) String() string { return responseKindNames.name(uint8(k)) }

func (k ResponseKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ResponseKind) UnmarshalText(b []byte) error {
	v, err := ParseResponseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseResponseKind(s string) (ResponseKind, error) {
	if v, ok := responseKindNames.lookup(s); ok {
		return ResponseKind(v), nil
	}
	return 0, fmt.Errorf("unknown response kind %q", s)
}

// DopKind tells which ODX element a Dop was read from.
type DopKind uint8

const (
	DopRegular DopKind = iota
	DopStructure
	DopDtc
	DopEndOfPduField
	DopStaticField
	DopDynamicLengthField
	DopMux
	DopEnvData
	DopEnvDataDesc
)

var dopKindNames = enumNames{
	"DATA-OBJECT-PROP",
	"STRUCTURE",
	"DTC-DOP",
	"END-OF-PDU-FIELD",
	"STATIC-FIELD",
	"DYNAMIC-LENGTH-FIELD",
	"MUX",
	"ENV-DATA",
	"ENV-DATA-DESC",
}

func (k DopKind) String() string { return dopKindNames.name(uint8(k)) }

func (k DopKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *DopKind) UnmarshalText(b []byte) error {
	v, err := ParseDopKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseDopKind(s string) (DopKind, error) {
	if v, ok := dopKindNames.lookup(s); ok {
		return DopKind(v), nil
	}
	return 0, fmt.Errorf("unknown dop kind %q", s)
}

// Addressing of a diag service; ODX default is PHYSICAL.
type Addressing uint8

const (
	AddressingPhysical Addressing = iota
	AddressingFunctional
	AddressingFunctionalOrPhysical
)

var addressingNames = enumNames{
	"PHYSICAL",
	"FUNCTIONAL",
	"FUNCTIONAL-OR-PHYSICAL",
}

func (a Addressing) String() string { return addressingNames.name(uint8(a)) }

func (a Addressing) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Addressing) UnmarshalText(b []byte) error {
	v, err := ParseAddressing(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func ParseAddressing(s string) (Addressing, error) {
	if v, ok := addressingNames.lookup(s); ok {
		return Addressing(v), nil
	}
	return 0, fmt.Errorf("unknown addressing %q", s)
}

type TransmissionMode uint8

const (
	TransmissionSendAndReceive TransmissionMode = iota
	TransmissionSendOnly
	TransmissionReceiveOnly
	TransmissionSendOrReceive
)

var transmissionModeNames = enumNames{
	"SEND-AND-RECEIVE",
	"SEND-ONLY",
	"RECEIVE-ONLY",
	"SEND-OR-RECEIVE",
}

func (m TransmissionMode) String() string { return transmissionModeNames.name(uint8(m)) }

func (m TransmissionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *TransmissionMode) UnmarshalText(b []byte) error {
	v, err := ParseTransmissionMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseTransmissionMode(s string) (TransmissionMode, error) {
	if v, ok := transmissionModeNames.lookup(s); ok {
		return TransmissionMode(v), nil
	}
	return 0, fmt.Errorf("unknown transmission mode %q", s)
}

// DataType is an ODX base data type.
type DataType uint8

const (
	DataUint32 DataType = iota
	DataInt32
	DataFloat32
	DataFloat64
	DataASCIIString
	DataUTF8String
	DataUnicode2String
	DataByteField
)

var dataTypeNames = enumNames{
	"A_UINT32",
	"A_INT32",
	"A_FLOAT32",
	"A_FLOAT64",
	"A_ASCIISTRING",
	"A_UTF8STRING",
	"A_UNICODE2STRING",
	"A_BYTEFIELD",
}

func (d DataType) String() string { return dataTypeNames.name(uint8(d)) }

func (d DataType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DataType) UnmarshalText(b []byte) error {
	v, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDataType(s string) (DataType, error) {
	if v, ok := dataTypeNames.lookup(s); ok {
		return DataType(v), nil
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// HexBytes is a byte string that reads and writes as upper-case hex text.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(out, h)
	return bytes.ToUpper(out), nil
}

func (h *HexBytes) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(b), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	v, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bad hex bytes %q: %w", b, err)
	}
	*h = v
	return nil
}
