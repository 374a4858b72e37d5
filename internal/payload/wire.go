package payload

import "diagconv/internal/ir"

// Union type tags. Zero is NONE in every union; members count from one in
// declaration order.
const (
	paramDataCodedConst uint8 = iota + 1
	paramDataDynamic
	paramDataLengthKeyRef
	paramDataMatchingRequestParam
	paramDataNrcConst
	paramDataPhysConst
	paramDataReserved
	paramDataSystem
	paramDataValue
	paramDataTableEntry
	paramDataTableKey
	paramDataTableStruct
)

const (
	dopDataNormal uint8 = iota + 1
	dopDataEndOfPduField
	dopDataStaticField
	dopDataEnvDataDesc
	dopDataEnvData
	dopDataDtc
	dopDataStructure
	dopDataMux
	dopDataDynamicLengthField
)

const (
	lengthLeading uint8 = iota + 1
	lengthMinMax
	lengthParam
	lengthStandard
)

const (
	refVariant uint8 = iota + 1
	refProtocol
	refFunctionalGroup
	refTableDop
	refEcuSharedData
)

const (
	entrySimpleValue uint8 = iota + 1
	entryComplexValue
)

// wireEnum maps an ir enum value (the index) to its wire value.
type wireEnum []uint8

func (w wireEnum) wire(v uint8) uint8 {
	if int(v) < len(w) {
		return w[v]
	}
	return 0
}

// ir returns the ir value for wire value v, or fallback when v is unknown.
func (w wireEnum) ir(v, fallback uint8) uint8 {
	for i, x := range w {
		if x == v {
			return uint8(i)
		}
	}
	return fallback
}

var (
	paramTypes = wireEnum{
		ir.ParamCodedConst:           0,
		ir.ParamNrcConst:             4,
		ir.ParamValue:                11,
		ir.ParamPhysConst:            5,
		ir.ParamMatchingRequestParam: 3,
		ir.ParamReserved:             6,
		ir.ParamSystem:               7,
		ir.ParamLengthKey:            2,
		ir.ParamDynamic:              1,
		ir.ParamTableKey:             9,
		ir.ParamTableStruct:          10,
		ir.ParamTableEntry:           8,
	}
	dopKinds = wireEnum{
		ir.DopRegular:            0,
		ir.DopStructure:          8,
		ir.DopDtc:                9,
		ir.DopEndOfPduField:      5,
		ir.DopStaticField:        6,
		ir.DopDynamicLengthField: 4,
		ir.DopMux:                2,
		ir.DopEnvData:            7,
		ir.DopEnvDataDesc:        1,
	}
	responseKinds = wireEnum{
		ir.ResponsePositive:       0,
		ir.ResponseNegative:       1,
		ir.ResponseGlobalNegative: 2,
	}
	addressings = wireEnum{
		ir.AddressingPhysical:             1,
		ir.AddressingFunctional:           0,
		ir.AddressingFunctionalOrPhysical: 2,
	}
	transmissionModes = wireEnum{
		ir.TransmissionSendAndReceive: 2,
		ir.TransmissionSendOnly:       0,
		ir.TransmissionReceiveOnly:    1,
		ir.TransmissionSendOrReceive:  3,
	}
	dataTypes = wireEnum{
		ir.DataUint32:         1,
		ir.DataInt32:          0,
		ir.DataFloat32:        2,
		ir.DataFloat64:        7,
		ir.DataASCIIString:    3,
		ir.DataUTF8String:     4,
		ir.DataUnicode2String: 5,
		ir.DataByteField:      6,
	}
)

// nameEnum lists the text spellings of a wire enum; index is the wire value.
// The ir keeps these fields as text, so spellings outside the list travel
// in a separate name slot.
type nameEnum []string

func (n nameEnum) wire(s string) (uint8, bool) {
	for i, name := range n {
		if name == s {
			return uint8(i), true
		}
	}
	return 0, false
}

func (n nameEnum) name(v uint8) string {
	if int(v) < len(n) {
		return n[v]
	}
	return ""
}

var (
	diagClasses = nameEnum{
		"STARTCOMM", "STOPCOMM", "VARIANTIDENTIFICATION",
		"READ-DYN-DEFMESSAGE", "DYN-DEF-MESSAGE", "CLEAR-DYN-DEF-MESSAGE",
	}
	codedTypeNames = nameEnum{
		"LEADING-LENGTH-INFO-TYPE", "MIN-MAX-LENGTH-TYPE",
		"PARAM-LENGTH-INFO-TYPE", "STANDARD-LENGTH-TYPE",
	}
	terminations    = nameEnum{"END-OF-PDU", "ZERO", "HEX-FF"}
	intervalTypes   = nameEnum{"OPEN", "CLOSED", "INFINITE"}
	compuCategories = nameEnum{
		"IDENTICAL", "LINEAR", "SCALE-LINEAR", "TEXTTABLE", "COMPUCODE",
		"TAB-INTP", "RAT-FUNC", "SCALE-RAT-FUNC",
	}
	radixes        = nameEnum{"HEX", "DEC", "BIN", "OCT"}
	validities     = nameEnum{"VALID", "NOT-VALID", "NOT-DEFINED", "NOT-AVAILABLE"}
	memoryAccesses = nameEnum{"read", "write", "read_write", "execute"}
	blockTypes     = nameEnum{"download", "upload"}
	blockFormats   = nameEnum{"raw", "encrypted", "compressed", "encrypted_compressed"}
)
