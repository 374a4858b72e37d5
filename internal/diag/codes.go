package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Чтение ODX/PDX
	OdxInfo              Code = 1000
	OdxUnknownIDRef      Code = 1001
	OdxSkippedEntry      Code = 1002
	OdxUnknownParamType  Code = 1003
	OdxBadNumber         Code = 1004
	OdxUnsupportedLayer  Code = 1005
	OdxDuplicateDtc      Code = 1006
	OdxMissingResponse   Code = 1007
	OdxUnknownCompuValue Code = 1008
	OdxBadEnum           Code = 1009

	// YAML
	YamlInfo            Code = 2000
	YamlUnknownSchema   Code = 2001
	YamlDeprecatedField Code = 2002

	// Резолвер наследования
	ResInfo              Code = 3000
	ResCycle             Code = 3001
	ResDanglingParent    Code = 3002
	ResAmbiguousOverride Code = 3003
	ResDanglingDop       Code = 3004
	ResDuplicateLayer    Code = 3005
	ResSelfParent        Code = 3006
	ResDuplicateDtc      Code = 3007

	// MDD контейнер
	MddInfo          Code = 4000
	MddUnknownChunk  Code = 4001
	MddUnsignedChunk Code = 4002
	MddFeatureFlag   Code = 4003

	// Структурная валидация IR
	ValInfo  Code = 5000
	ValIssue Code = 5001

	// Конвертация
	CnvInfo           Code = 6000
	CnvMissingJobFile Code = 6001
	CnvCacheFailure   Code = 6002
	CnvDroppedField   Code = 6003
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	OdxInfo:              "ODX information",
	OdxUnknownIDRef:      "Reference to an unknown ODX ID",
	OdxSkippedEntry:      "Archive entry skipped",
	OdxUnknownParamType:  "Unknown parameter type, treated as VALUE",
	OdxBadNumber:         "Malformed numeric value",
	OdxUnsupportedLayer:  "Unsupported diag layer element",
	OdxDuplicateDtc:      "Duplicate DTC trouble code",
	OdxMissingResponse:   "Response reference not found",
	OdxUnknownCompuValue: "Unsupported compu method value",
	OdxBadEnum:           "Unknown enumeration value, default used",

	YamlInfo:            "YAML information",
	YamlUnknownSchema:   "Unknown YAML schema identifier",
	YamlDeprecatedField: "Deprecated YAML field",

	ResInfo:              "Resolver information",
	ResCycle:             "Inheritance cycle",
	ResDanglingParent:    "Parent reference to an unknown layer",
	ResAmbiguousOverride: "Ambiguous override between parents",
	ResDanglingDop:       "Unresolved DOP reference",
	ResDuplicateLayer:    "Duplicate layer short-name",
	ResSelfParent:        "Layer references itself as parent",
	ResDuplicateDtc:      "Duplicate DTC across layers",

	MddInfo:          "MDD information",
	MddUnknownChunk:  "Unknown chunk type preserved verbatim",
	MddUnsignedChunk: "Chunk carries no signature",
	MddFeatureFlag:   "Unknown feature flag",

	ValInfo:  "Validation information",
	ValIssue: "Structural validation issue",

	CnvInfo:           "Conversion information",
	CnvMissingJobFile: "Job code file not found",
	CnvCacheFailure:   "Parse cache unavailable",
	CnvDroppedField:   "Field not representable in target format",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ODX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("YML%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MDD%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CNV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
