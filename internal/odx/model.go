package odx

import "encoding/xml"

// Raw ODX element model. Only the subset that maps onto the IR is kept.
// Wrapper collections are pointers to slices: a nil pointer suppresses the
// wrapper element on output, which a plain slice with an a>b path does not.

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// xsiType is the xsi:type attribute. The decoder matches attributes on the
// local name when the field carries no namespace, so "type,attr" finds the
// attribute whether or not the document declared the xsi prefix.
type xsiType string

func (t xsiType) MarshalXMLAttr(xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: xml.Name{Local: "xsi:type"}, Value: string(t)}, nil
}

func (t *xsiType) UnmarshalXMLAttr(a xml.Attr) error {
	*t = xsiType(a.Value)
	return nil
}

type document struct {
	XMLName   xml.Name   `xml:"ODX"`
	XMLNSXsi  string     `xml:"xmlns:xsi,attr,omitempty"`
	Model     string     `xml:"MODEL-VERSION,attr,omitempty"`
	Version   string     `xml:"VERSION,attr,omitempty"`
	Container *container `xml:"DIAG-LAYER-CONTAINER"`
}

type container struct {
	ID               string      `xml:"ID,attr,omitempty"`
	ShortName        string      `xml:"SHORT-NAME"`
	LongName         *text       `xml:"LONG-NAME"`
	AdminData        *adminData  `xml:"ADMIN-DATA"`
	Sdgs             *[]sdg      `xml:"SDGS>SDG"`
	Protocols        *[]rawLayer `xml:"PROTOCOLS>PROTOCOL"`
	FunctionalGroups *[]rawLayer `xml:"FUNCTIONAL-GROUPS>FUNCTIONAL-GROUP"`
	EcuSharedDatas   *[]rawLayer `xml:"ECU-SHARED-DATAS>ECU-SHARED-DATA"`
	BaseVariants     *[]rawLayer `xml:"BASE-VARIANTS>BASE-VARIANT"`
	EcuVariants      *[]rawLayer `xml:"ECU-VARIANTS>ECU-VARIANT"`
}

type adminData struct {
	DocRevisions *[]docRevision `xml:"DOC-REVISIONS>DOC-REVISION"`
}

type docRevision struct {
	RevisionLabel string `xml:"REVISION-LABEL,omitempty"`
	State         string `xml:"STATE,omitempty"`
	Date          string `xml:"DATE,omitempty"`
}

type sdg struct {
	SI  string `xml:"SI,attr,omitempty"`
	Sds []sd   `xml:"SD"`
}

type sd struct {
	SI    string `xml:"SI,attr,omitempty"`
	Value string `xml:",chardata"`
}

// text covers LONG-NAME, SHORT-LABEL, TEXT and VT: a value with optional TI.
type text struct {
	TI    string `xml:"TI,attr,omitempty"`
	Value string `xml:",chardata"`
}

// link is an ODXLINK: ID-REF plus optional cross-document target.
type link struct {
	IDRef   string `xml:"ID-REF,attr"`
	DocRef  string `xml:"DOCREF,attr,omitempty"`
	DocType string `xml:"DOCTYPE,attr,omitempty"`
}

type snref struct {
	ShortName string `xml:"SHORT-NAME,attr"`
}

type rawLayer struct {
	ID                  string                `xml:"ID,attr,omitempty"`
	ShortName           string                `xml:"SHORT-NAME"`
	LongName            *text                 `xml:"LONG-NAME"`
	FunctClasses        *[]functClass         `xml:"FUNCT-CLASSS>FUNCT-CLASS"`
	DataDictionary      *dataDictionary       `xml:"DIAG-DATA-DICTIONARY-SPEC"`
	Services            *[]diagService        `xml:"DIAG-COMMS>DIAG-SERVICE"`
	Jobs                *[]singleEcuJob       `xml:"DIAG-COMMS>SINGLE-ECU-JOB"`
	Requests            *[]message            `xml:"REQUESTS>REQUEST"`
	PosResponses        *[]message            `xml:"POS-RESPONSES>POS-RESPONSE"`
	NegResponses        *[]message            `xml:"NEG-RESPONSES>NEG-RESPONSE"`
	GlobalNegResponses  *[]message            `xml:"GLOBAL-NEG-RESPONSES>GLOBAL-NEG-RESPONSE"`
	StateCharts         *[]stateChart         `xml:"STATE-CHARTS>STATE-CHART"`
	AdditionalAudiences *[]additionalAudience `xml:"ADDITIONAL-AUDIENCES>ADDITIONAL-AUDIENCE"`
	Libraries           *[]library            `xml:"LIBRARYS>LIBRARY"`
	ComParamRefs        *[]comParamRef        `xml:"COMPARAM-REFS>COMPARAM-REF"`
	ParentRefs          *[]parentRef          `xml:"PARENT-REFS>PARENT-REF"`
	VariantPatterns     *[]variantPattern     `xml:"ECU-VARIANT-PATTERNS>ECU-VARIANT-PATTERN"`
}

type functClass struct {
	ID        string `xml:"ID,attr,omitempty"`
	ShortName string `xml:"SHORT-NAME"`
}

type parentRef struct {
	link
	Type                           xsiType         `xml:"type,attr,omitempty"`
	NotInheritedDiagComms          *[]notInherited `xml:"NOT-INHERITED-DIAG-COMMS>NOT-INHERITED-DIAG-COMM"`
	NotInheritedDops               *[]notInherited `xml:"NOT-INHERITED-DOPS>NOT-INHERITED-DOP"`
	NotInheritedTables             *[]notInherited `xml:"NOT-INHERITED-TABLES>NOT-INHERITED-TABLE"`
	NotInheritedGlobalNegResponses *[]notInherited `xml:"NOT-INHERITED-GLOBAL-NEG-RESPONSES>NOT-INHERITED-GLOBAL-NEG-RESPONSE"`
}

// notInherited holds exactly one of the snrefs, depending on the list.
type notInherited struct {
	DiagComm       *snref `xml:"DIAG-COMM-SNREF"`
	DopBase        *snref `xml:"DOP-BASE-SNREF"`
	Table          *snref `xml:"TABLE-SNREF"`
	GlobalNegResps *snref `xml:"GLOBAL-NEG-RESPONSE-SNREF"`
}

func (n notInherited) name() string {
	for _, s := range []*snref{n.DiagComm, n.DopBase, n.Table, n.GlobalNegResps} {
		if s != nil {
			return s.ShortName
		}
	}
	return ""
}

type comParamRef struct {
	link
	SimpleValue    string        `xml:"SIMPLE-VALUE,omitempty"`
	ComplexValue   *complexValue `xml:"COMPLEX-VALUE"`
	ProtocolSnref  *snref        `xml:"PROTOCOL-SNREF"`
	ProtStackSnref *snref        `xml:"PROT-STACK-SNREF"`
}

type complexValue struct {
	SimpleValues []string `xml:"SIMPLE-VALUE"`
}

type diagService struct {
	ID                    string    `xml:"ID,attr,omitempty"`
	Semantic              string    `xml:"SEMANTIC,attr,omitempty"`
	DiagnosticClass       string    `xml:"DIAGNOSTIC-CLASS,attr,omitempty"`
	IsMandatory           string    `xml:"IS-MANDATORY,attr,omitempty"`
	IsExecutable          string    `xml:"IS-EXECUTABLE,attr,omitempty"`
	IsFinal               string    `xml:"IS-FINAL,attr,omitempty"`
	IsCyclic              string    `xml:"IS-CYCLIC,attr,omitempty"`
	IsMultiple            string    `xml:"IS-MULTIPLE,attr,omitempty"`
	Addressing            string    `xml:"ADDRESSING,attr,omitempty"`
	TransmissionMode      string    `xml:"TRANSMISSION-MODE,attr,omitempty"`
	ShortName             string    `xml:"SHORT-NAME"`
	LongName              *text     `xml:"LONG-NAME"`
	FunctClassRefs        *[]link   `xml:"FUNCT-CLASS-REFS>FUNCT-CLASS-REF"`
	Audience              *audience `xml:"AUDIENCE"`
	PreConditionStateRefs *[]link   `xml:"PRE-CONDITION-STATE-REFS>PRE-CONDITION-STATE-REF"`
	StateTransitionRefs   *[]link   `xml:"STATE-TRANSITION-REFS>STATE-TRANSITION-REF"`
	RequestRef            *link     `xml:"REQUEST-REF"`
	PosResponseRefs       *[]link   `xml:"POS-RESPONSE-REFS>POS-RESPONSE-REF"`
	NegResponseRefs       *[]link   `xml:"NEG-RESPONSE-REFS>NEG-RESPONSE-REF"`
}

type singleEcuJob struct {
	ID              string      `xml:"ID,attr,omitempty"`
	Semantic        string      `xml:"SEMANTIC,attr,omitempty"`
	ShortName       string      `xml:"SHORT-NAME"`
	LongName        *text       `xml:"LONG-NAME"`
	Audience        *audience   `xml:"AUDIENCE"`
	ProgCodes       *[]progCode `xml:"PROG-CODES>PROG-CODE"`
	InputParams     *[]jobParam `xml:"INPUT-PARAMS>INPUT-PARAM"`
	OutputParams    *[]jobParam `xml:"OUTPUT-PARAMS>OUTPUT-PARAM"`
	NegOutputParams *[]jobParam `xml:"NEG-OUTPUT-PARAMS>NEG-OUTPUT-PARAM"`
}

type progCode struct {
	CodeFile    string  `xml:"CODE-FILE"`
	Encryption  string  `xml:"ENCRYPTION,omitempty"`
	Syntax      string  `xml:"SYNTAX,omitempty"`
	Revision    string  `xml:"REVISION,omitempty"`
	EntryPoint  string  `xml:"ENTRYPOINT,omitempty"`
	LibraryRefs *[]link `xml:"LIBRARY-REFS>LIBRARY-REF"`
}

type library struct {
	ID         string `xml:"ID,attr,omitempty"`
	ShortName  string `xml:"SHORT-NAME"`
	CodeFile   string `xml:"CODE-FILE"`
	Encryption string `xml:"ENCRYPTION,omitempty"`
	Syntax     string `xml:"SYNTAX,omitempty"`
	EntryPoint string `xml:"ENTRYPOINT,omitempty"`
}

type jobParam struct {
	Semantic             string `xml:"SEMANTIC,attr,omitempty"`
	ShortName            string `xml:"SHORT-NAME"`
	LongName             *text  `xml:"LONG-NAME"`
	PhysicalDefaultValue string `xml:"PHYSICAL-DEFAULT-VALUE,omitempty"`
	DopBaseRef           *link  `xml:"DOP-BASE-REF"`
}

// message is a REQUEST, POS-RESPONSE, NEG-RESPONSE or GLOBAL-NEG-RESPONSE.
type message struct {
	ID        string   `xml:"ID,attr,omitempty"`
	ShortName string   `xml:"SHORT-NAME"`
	LongName  *text    `xml:"LONG-NAME"`
	Params    *[]param `xml:"PARAMS>PARAM"`
}

type param struct {
	ID                   string         `xml:"ID,attr,omitempty"`
	Type                 xsiType        `xml:"type,attr,omitempty"`
	Semantic             string         `xml:"SEMANTIC,attr,omitempty"`
	ShortName            string         `xml:"SHORT-NAME"`
	LongName             *text          `xml:"LONG-NAME"`
	BytePosition         string         `xml:"BYTE-POSITION,omitempty"`
	BitPosition          string         `xml:"BIT-POSITION,omitempty"`
	CodedValue           string         `xml:"CODED-VALUE,omitempty"`
	CodedValues          *[]string      `xml:"CODED-VALUES>CODED-VALUE"`
	PhysicalDefaultValue string         `xml:"PHYSICAL-DEFAULT-VALUE,omitempty"`
	PhysConstantValue    string         `xml:"PHYS-CONSTANT-VALUE,omitempty"`
	DiagCodedType        *diagCodedType `xml:"DIAG-CODED-TYPE"`
	DopRef               *link          `xml:"DOP-REF"`
	DopSnref             *snref         `xml:"DOP-SNREF"`
	BitLength            string         `xml:"BIT-LENGTH,omitempty"`
	RequestBytePos       string         `xml:"REQUEST-BYTE-POS,omitempty"`
	ByteLength           string         `xml:"BYTE-LENGTH,omitempty"`
	// старые инструменты пишут MATCH-BYTE-LENGTH
	MatchByteLength string `xml:"MATCH-BYTE-LENGTH,omitempty"`
}

type dataDictionary struct {
	DtcDops             *[]dtcDop         `xml:"DTC-DOPS>DTC-DOP"`
	EnvDataDescs        *[]namedElement   `xml:"ENV-DATA-DESCS>ENV-DATA-DESC"`
	DataObjectProps     *[]dataObjectProp `xml:"DATA-OBJECT-PROPS>DATA-OBJECT-PROP"`
	Structures          *[]structure      `xml:"STRUCTURES>STRUCTURE"`
	StaticFields        *[]field          `xml:"STATIC-FIELDS>STATIC-FIELD"`
	DynamicLengthFields *[]field          `xml:"DYNAMIC-LENGTH-FIELDS>DYNAMIC-LENGTH-FIELD"`
	EndOfPduFields      *[]field          `xml:"END-OF-PDU-FIELDS>END-OF-PDU-FIELD"`
	Muxs                *[]namedElement   `xml:"MUXS>MUX"`
	EnvDatas            *[]structure      `xml:"ENV-DATAS>ENV-DATA"`
	UnitSpec            *unitSpec         `xml:"UNIT-SPEC"`
}

type namedElement struct {
	ID        string `xml:"ID,attr,omitempty"`
	ShortName string `xml:"SHORT-NAME"`
	LongName  *text  `xml:"LONG-NAME"`
}

type dataObjectProp struct {
	ID             string         `xml:"ID,attr,omitempty"`
	ShortName      string         `xml:"SHORT-NAME"`
	LongName       *text          `xml:"LONG-NAME"`
	CompuMethod    *compuMethod   `xml:"COMPU-METHOD"`
	DiagCodedType  *diagCodedType `xml:"DIAG-CODED-TYPE"`
	PhysicalType   *physicalType  `xml:"PHYSICAL-TYPE"`
	InternalConstr *constraint    `xml:"INTERNAL-CONSTR"`
	UnitRef        *link          `xml:"UNIT-REF"`
	PhysConstr     *constraint    `xml:"PHYS-CONSTR"`
}

type dtcDop struct {
	ID            string         `xml:"ID,attr,omitempty"`
	ShortName     string         `xml:"SHORT-NAME"`
	LongName      *text          `xml:"LONG-NAME"`
	DiagCodedType *diagCodedType `xml:"DIAG-CODED-TYPE"`
	PhysicalType  *physicalType  `xml:"PHYSICAL-TYPE"`
	CompuMethod   *compuMethod   `xml:"COMPU-METHOD"`
	Dtcs          *[]dtc         `xml:"DTCS>DTC"`
}

type dtc struct {
	ID                 string `xml:"ID,attr,omitempty"`
	IsTemporary        string `xml:"IS-TEMPORARY,attr,omitempty"`
	ShortName          string `xml:"SHORT-NAME"`
	TroubleCode        string `xml:"TROUBLE-CODE"`
	DisplayTroubleCode string `xml:"DISPLAY-TROUBLE-CODE,omitempty"`
	Texts              []text `xml:"TEXT"`
	Level              string `xml:"LEVEL,omitempty"`
}

// structure is a STRUCTURE or an ENV-DATA; both are named param lists.
type structure struct {
	ID        string   `xml:"ID,attr,omitempty"`
	ShortName string   `xml:"SHORT-NAME"`
	LongName  *text    `xml:"LONG-NAME"`
	ByteSize  string   `xml:"BYTE-SIZE,omitempty"`
	Params    *[]param `xml:"PARAMS>PARAM"`
}

type field struct {
	ID                 string `xml:"ID,attr,omitempty"`
	ShortName          string `xml:"SHORT-NAME"`
	LongName           *text  `xml:"LONG-NAME"`
	BasicStructureRef  *link  `xml:"BASIC-STRUCTURE-REF"`
	FixedNumberOfItems string `xml:"FIXED-NUMBER-OF-ITEMS,omitempty"`
	ItemByteSize       string `xml:"ITEM-BYTE-SIZE,omitempty"`
}

type diagCodedType struct {
	Type               xsiType `xml:"type,attr,omitempty"`
	BaseDataType       string  `xml:"BASE-DATA-TYPE,attr,omitempty"`
	BaseTypeEncoding   string  `xml:"BASE-TYPE-ENCODING,attr,omitempty"`
	IsHighLowByteOrder string  `xml:"IS-HIGHLOW-BYTE-ORDER,attr,omitempty"`
	IsCondensed        string  `xml:"IS-CONDENSED,attr,omitempty"`
	Termination        string  `xml:"TERMINATION,attr,omitempty"`
	BitLength          string  `xml:"BIT-LENGTH,omitempty"`
	BitMask            string  `xml:"BIT-MASK,omitempty"`
	MinLength          string  `xml:"MIN-LENGTH,omitempty"`
	MaxLength          string  `xml:"MAX-LENGTH,omitempty"`
	LengthKeyRef       *link   `xml:"LENGTH-KEY-REF"`
	// some writers put TERMINATION in an element
	TerminationElement string `xml:"TERMINATION,omitempty"`
}

type physicalType struct {
	BaseDataType string `xml:"BASE-DATA-TYPE,attr,omitempty"`
	DisplayRadix string `xml:"DISPLAY-RADIX,attr,omitempty"`
	Precision    string `xml:"PRECISION,omitempty"`
}

type compuMethod struct {
	Category       string           `xml:"CATEGORY"`
	InternalToPhys *compuConversion `xml:"COMPU-INTERNAL-TO-PHYS"`
	PhysToInternal *compuConversion `xml:"COMPU-PHYS-TO-INTERNAL"`
}

type compuConversion struct {
	Scales  *[]compuScale `xml:"COMPU-SCALES>COMPU-SCALE"`
	Default *compuValues  `xml:"COMPU-DEFAULT-VALUE"`
}

type compuScale struct {
	ShortLabel   *text           `xml:"SHORT-LABEL"`
	LowerLimit   *limit          `xml:"LOWER-LIMIT"`
	UpperLimit   *limit          `xml:"UPPER-LIMIT"`
	InverseValue *compuValues    `xml:"COMPU-INVERSE-VALUE"`
	Const        *compuValues    `xml:"COMPU-CONST"`
	Rational     *rationalCoeffs `xml:"COMPU-RATIONAL-COEFFS"`
}

type rationalCoeffs struct {
	Numerators   *[]string `xml:"COMPU-NUMERATOR>V"`
	Denominators *[]string `xml:"COMPU-DENOMINATOR>V"`
}

type compuValues struct {
	V  string `xml:"V,omitempty"`
	VT *text  `xml:"VT"`
}

type limit struct {
	IntervalType string `xml:"INTERVAL-TYPE,attr,omitempty"`
	Value        string `xml:",chardata"`
}

type constraint struct {
	LowerLimit   *limit         `xml:"LOWER-LIMIT"`
	UpperLimit   *limit         `xml:"UPPER-LIMIT"`
	ScaleConstrs *[]scaleConstr `xml:"SCALE-CONSTRS>SCALE-CONSTR"`
}

type scaleConstr struct {
	Validity   string `xml:"VALIDITY,attr,omitempty"`
	ShortLabel *text  `xml:"SHORT-LABEL"`
	LowerLimit *limit `xml:"LOWER-LIMIT"`
	UpperLimit *limit `xml:"UPPER-LIMIT"`
}

type unitSpec struct {
	Units              *[]unit              `xml:"UNITS>UNIT"`
	PhysicalDimensions *[]physicalDimension `xml:"PHYSICAL-DIMENSIONS>PHYSICAL-DIMENSION"`
}

type unit struct {
	ID                   string `xml:"ID,attr,omitempty"`
	ShortName            string `xml:"SHORT-NAME"`
	DisplayName          string `xml:"DISPLAY-NAME,omitempty"`
	FactorSIToUnit       string `xml:"FACTOR-SI-TO-UNIT,omitempty"`
	OffsetSIToUnit       string `xml:"OFFSET-SI-TO-UNIT,omitempty"`
	PhysicalDimensionRef *link  `xml:"PHYSICAL-DIMENSION-REF"`
}

type physicalDimension struct {
	ID                   string `xml:"ID,attr,omitempty"`
	ShortName            string `xml:"SHORT-NAME"`
	LengthExp            string `xml:"LENGTH-EXP,omitempty"`
	MassExp              string `xml:"MASS-EXP,omitempty"`
	TimeExp              string `xml:"TIME-EXP,omitempty"`
	CurrentExp           string `xml:"CURRENT-EXP,omitempty"`
	TemperatureExp       string `xml:"TEMPERATURE-EXP,omitempty"`
	MolarAmountExp       string `xml:"MOLAR-AMOUNT-EXP,omitempty"`
	LuminousIntensityExp string `xml:"LUMINOUS-INTENSITY-EXP,omitempty"`
}

type stateChart struct {
	ID               string             `xml:"ID,attr,omitempty"`
	SemanticAttr     string             `xml:"SEMANTIC,attr,omitempty"`
	ShortName        string             `xml:"SHORT-NAME"`
	LongName         *text              `xml:"LONG-NAME"`
	Semantic         string             `xml:"SEMANTIC,omitempty"`
	StateTransitions *[]stateTransition `xml:"STATE-TRANSITIONS>STATE-TRANSITION"`
	StartState       *snref             `xml:"START-STATE-SNREF"`
	States           *[]state           `xml:"STATES>STATE"`
}

type state struct {
	ID        string `xml:"ID,attr,omitempty"`
	ShortName string `xml:"SHORT-NAME"`
	LongName  *text  `xml:"LONG-NAME"`
}

type stateTransition struct {
	ID        string `xml:"ID,attr,omitempty"`
	ShortName string `xml:"SHORT-NAME"`
	Source    *snref `xml:"SOURCE-SNREF"`
	Target    *snref `xml:"TARGET-SNREF"`
}

type additionalAudience struct {
	ID        string `xml:"ID,attr,omitempty"`
	ShortName string `xml:"SHORT-NAME"`
	LongName  *text  `xml:"LONG-NAME"`
}

type audience struct {
	IsSupplier      string  `xml:"IS-SUPPLIER,attr,omitempty"`
	IsDevelopment   string  `xml:"IS-DEVELOPMENT,attr,omitempty"`
	IsManufacturing string  `xml:"IS-MANUFACTURING,attr,omitempty"`
	IsAfterSales    string  `xml:"IS-AFTERSALES,attr,omitempty"`
	IsAfterMarket   string  `xml:"IS-AFTERMARKET,attr,omitempty"`
	EnabledRefs     *[]link `xml:"ENABLED-AUDIENCE-REFS>ENABLED-AUDIENCE-REF"`
	DisabledRefs    *[]link `xml:"DISABLED-AUDIENCE-REFS>DISABLED-AUDIENCE-REF"`
}

type variantPattern struct {
	MatchingParameters *[]matchingParameter `xml:"MATCHING-PARAMETERS>MATCHING-PARAMETER"`
}

type matchingParameter struct {
	ExpectedValue         string `xml:"EXPECTED-VALUE"`
	DiagCommSnref         *snref `xml:"DIAG-COMM-SNREF"`
	OutParamIfSnref       *snref `xml:"OUT-PARAM-IF-SNREF"`
	OutParamSnref         *snref `xml:"OUT-PARAM-SNREF"`
	UsePhysicalAddressing string `xml:"USE-PHYSICAL-ADDRESSING,omitempty"`
}

func items[T any](p *[]T) []T {
	if p == nil {
		return nil
	}
	return *p
}

func wrap[T any](s []T) *[]T {
	if len(s) == 0 {
		return nil
	}
	return &s
}
