package ir

// DiagDatabase is the canonical representation every format converts through.
// Variant short-names are unique within a database; the resolver and the
// matcher both use them as the join key.
type DiagDatabase struct {
	Version          string            `yaml:"version,omitempty"`
	EcuName          string            `yaml:"ecu_name"`
	Revision         string            `yaml:"revision,omitempty"`
	Metadata         map[string]string `yaml:"metadata,omitempty"`
	Variants         []Variant         `yaml:"variants,omitempty"`
	FunctionalGroups []FunctionalGroup `yaml:"functional_groups,omitempty"`
	Dtcs             []Dtc             `yaml:"dtcs,omitempty"`
	Memory           *MemoryConfig     `yaml:"memory,omitempty"`
}

// Variant is one ECU configuration. After resolution its DiagLayer is an
// owned, fully merged copy.
type Variant struct {
	DiagLayer       DiagLayer        `yaml:"diag_layer"`
	IsBaseVariant   bool             `yaml:"is_base_variant,omitempty"`
	VariantPatterns []VariantPattern `yaml:"variant_patterns,omitempty"`
	ParentRefs      []ParentRef      `yaml:"parent_refs,omitempty"`
}

// ShortName returns the variant identity.
func (v *Variant) ShortName() string { return v.DiagLayer.ShortName }

type FunctionalGroup struct {
	DiagLayer  DiagLayer   `yaml:"diag_layer"`
	ParentRefs []ParentRef `yaml:"parent_refs,omitempty"`
}

// ParentRef points at another layer by short-name. Priority breaks ties
// between same-generation parents; nil counts as zero.
type ParentRef struct {
	ShortName                      string    `yaml:"short_name"`
	Kind                           LayerKind `yaml:"kind"`
	Priority                       *int32    `yaml:"priority,omitempty"`
	NotInheritedDiagComms          []string  `yaml:"not_inherited_diag_comms,omitempty"`
	NotInheritedDops               []string  `yaml:"not_inherited_dops,omitempty"`
	NotInheritedTables             []string  `yaml:"not_inherited_tables,omitempty"`
	NotInheritedGlobalNegResponses []string  `yaml:"not_inherited_global_neg_responses,omitempty"`
}

// PriorityValue returns the declared priority or zero.
func (p *ParentRef) PriorityValue() int32 {
	if p == nil || p.Priority == nil {
		return 0
	}
	return *p.Priority
}

type DiagLayer struct {
	ShortName           string               `yaml:"short_name"`
	LongName            *Text                `yaml:"long_name,omitempty"`
	FunctClasses        []FunctClass         `yaml:"funct_classes,omitempty"`
	ComParamRefs        []ComParamRef        `yaml:"com_param_refs,omitempty"`
	DiagServices        []DiagService        `yaml:"diag_services,omitempty"`
	SingleEcuJobs       []SingleEcuJob       `yaml:"single_ecu_jobs,omitempty"`
	StateCharts         []StateChart         `yaml:"state_charts,omitempty"`
	AdditionalAudiences []AdditionalAudience `yaml:"additional_audiences,omitempty"`
}

// Text is a value with an optional translation id.
type Text struct {
	Value string `yaml:"value"`
	TI    string `yaml:"ti,omitempty"`
}

type FunctClass struct {
	ShortName string `yaml:"short_name"`
}

type ComParamRef struct {
	ShortName     string   `yaml:"short_name"`
	SimpleValue   string   `yaml:"simple_value,omitempty"`
	ComplexValues []string `yaml:"complex_values,omitempty"`
	Protocol      string   `yaml:"protocol,omitempty"`
	ProtStack     string   `yaml:"prot_stack,omitempty"`
}

type DiagService struct {
	ShortName             string           `yaml:"short_name"`
	LongName              *Text            `yaml:"long_name,omitempty"`
	Semantic              string           `yaml:"semantic,omitempty"`
	DiagnosticClass       string           `yaml:"diagnostic_class,omitempty"`
	Addressing            Addressing       `yaml:"addressing,omitempty"`
	TransmissionMode      TransmissionMode `yaml:"transmission_mode,omitempty"`
	IsMandatory           bool             `yaml:"is_mandatory,omitempty"`
	IsExecutable          bool             `yaml:"is_executable,omitempty"`
	IsFinal               bool             `yaml:"is_final,omitempty"`
	IsCyclic              bool             `yaml:"is_cyclic,omitempty"`
	IsMultiple            bool             `yaml:"is_multiple,omitempty"`
	Audience              *Audience        `yaml:"audience,omitempty"`
	FunctClassRefs        []string         `yaml:"funct_class_refs,omitempty"`
	PreConditionStateRefs []string         `yaml:"pre_condition_state_refs,omitempty"`
	StateTransitionRefs   []string         `yaml:"state_transition_refs,omitempty"`
	Request               *Request         `yaml:"request,omitempty"`
	PosResponses          []Response       `yaml:"pos_responses,omitempty"`
	NegResponses          []Response       `yaml:"neg_responses,omitempty"`
}

type SingleEcuJob struct {
	ShortName       string     `yaml:"short_name"`
	LongName        *Text      `yaml:"long_name,omitempty"`
	Semantic        string     `yaml:"semantic,omitempty"`
	Audience        *Audience  `yaml:"audience,omitempty"`
	ProgCodes       []ProgCode `yaml:"prog_codes,omitempty"`
	InputParams     []JobParam `yaml:"input_params,omitempty"`
	OutputParams    []JobParam `yaml:"output_params,omitempty"`
	NegOutputParams []JobParam `yaml:"neg_output_params,omitempty"`
}

type ProgCode struct {
	CodeFile   string    `yaml:"code_file"`
	Encryption string    `yaml:"encryption,omitempty"`
	Syntax     string    `yaml:"syntax,omitempty"`
	Revision   string    `yaml:"revision,omitempty"`
	EntryPoint string    `yaml:"entry_point,omitempty"`
	Libraries  []Library `yaml:"libraries,omitempty"`
}

type Library struct {
	ShortName  string `yaml:"short_name"`
	CodeFile   string `yaml:"code_file"`
	Encryption string `yaml:"encryption,omitempty"`
	Syntax     string `yaml:"syntax,omitempty"`
	EntryPoint string `yaml:"entry_point,omitempty"`
}

type JobParam struct {
	ShortName            string `yaml:"short_name"`
	LongName             *Text  `yaml:"long_name,omitempty"`
	Semantic             string `yaml:"semantic,omitempty"`
	PhysicalDefaultValue string `yaml:"physical_default_value,omitempty"`
	DopRef               string `yaml:"dop_ref,omitempty"`
	Dop                  *Dop   `yaml:"dop,omitempty"`
	DopUnresolved        bool   `yaml:"dop_unresolved,omitempty"`
}

type Request struct {
	ShortName string  `yaml:"short_name,omitempty"`
	Params    []Param `yaml:"params,omitempty"`
}

type Response struct {
	ShortName string       `yaml:"short_name,omitempty"`
	Kind      ResponseKind `yaml:"kind,omitempty"`
	Params    []Param      `yaml:"params,omitempty"`
}

// Param is one request/response parameter. DopRef names the data object
// property; Dop holds the bound copy once resolved. DopUnresolved marks a
// reference that lenient resolution could not bind.
type Param struct {
	ShortName            string         `yaml:"short_name"`
	Semantic             string         `yaml:"semantic,omitempty"`
	Type                 ParamType      `yaml:"type"`
	BytePosition         *uint32        `yaml:"byte_position,omitempty"`
	BitPosition          *uint32        `yaml:"bit_position,omitempty"`
	CodedValue           string         `yaml:"coded_value,omitempty"`
	CodedValues          []string       `yaml:"coded_values,omitempty"`
	PhysicalDefaultValue string         `yaml:"physical_default_value,omitempty"`
	PhysConstantValue    string         `yaml:"phys_constant_value,omitempty"`
	DiagCodedType        *DiagCodedType `yaml:"diag_coded_type,omitempty"`
	BitLength            *uint32        `yaml:"bit_length,omitempty"`
	RequestBytePos       *int32         `yaml:"request_byte_pos,omitempty"`
	MatchByteLength      *uint32        `yaml:"match_byte_length,omitempty"`
	DopRef               string         `yaml:"dop_ref,omitempty"`
	Dop                  *Dop           `yaml:"dop,omitempty"`
	DopUnresolved        bool           `yaml:"dop_unresolved,omitempty"`
}

type Dop struct {
	ShortName      string         `yaml:"short_name"`
	Kind           DopKind        `yaml:"kind,omitempty"`
	DiagCodedType  *DiagCodedType `yaml:"diag_coded_type,omitempty"`
	PhysicalType   *PhysicalType  `yaml:"physical_type,omitempty"`
	CompuMethod    *CompuMethod   `yaml:"compu_method,omitempty"`
	Unit           *Unit          `yaml:"unit,omitempty"`
	InternalConstr *Constraint    `yaml:"internal_constr,omitempty"`
	PhysConstr     *Constraint    `yaml:"phys_constr,omitempty"`
	Params         []Param        `yaml:"params,omitempty"`
	ByteSize       *uint32        `yaml:"byte_size,omitempty"`
}

type DiagCodedType struct {
	Type               string   `yaml:"type"`
	BaseDataType       DataType `yaml:"base_data_type"`
	BaseTypeEncoding   string   `yaml:"base_type_encoding,omitempty"`
	IsHighLowByteOrder bool     `yaml:"is_high_low_byte_order,omitempty"`
	BitLength          *uint32  `yaml:"bit_length,omitempty"`
	BitMask            HexBytes `yaml:"bit_mask,omitempty"`
	IsCondensed        bool     `yaml:"is_condensed,omitempty"`
	MinLength          *uint32  `yaml:"min_length,omitempty"`
	MaxLength          *uint32  `yaml:"max_length,omitempty"`
	Termination        string   `yaml:"termination,omitempty"`
	LengthKeyRef       string   `yaml:"length_key_ref,omitempty"`
}

type PhysicalType struct {
	BaseDataType DataType `yaml:"base_data_type"`
	DisplayRadix string   `yaml:"display_radix,omitempty"`
	Precision    *uint32  `yaml:"precision,omitempty"`
}

type CompuMethod struct {
	Category       string       `yaml:"category"`
	InternalToPhys []CompuScale `yaml:"internal_to_phys,omitempty"`
	PhysToInternal []CompuScale `yaml:"phys_to_internal,omitempty"`
	DefaultValue   *CompuValues `yaml:"default_value,omitempty"`
}

type CompuScale struct {
	ShortLabel   *Text        `yaml:"short_label,omitempty"`
	LowerLimit   *Limit       `yaml:"lower_limit,omitempty"`
	UpperLimit   *Limit       `yaml:"upper_limit,omitempty"`
	InverseValue *CompuValues `yaml:"inverse_value,omitempty"`
	Const        *CompuValues `yaml:"const,omitempty"`
	Numerators   []float64    `yaml:"numerators,omitempty"`
	Denominators []float64    `yaml:"denominators,omitempty"`
}

type CompuValues struct {
	V    *float64 `yaml:"v,omitempty"`
	VT   string   `yaml:"vt,omitempty"`
	VTTI string   `yaml:"vt_ti,omitempty"`
}

type Limit struct {
	Value        string `yaml:"value"`
	IntervalType string `yaml:"interval_type,omitempty"`
}

type Constraint struct {
	LowerLimit   *Limit        `yaml:"lower_limit,omitempty"`
	UpperLimit   *Limit        `yaml:"upper_limit,omitempty"`
	ScaleConstrs []ScaleConstr `yaml:"scale_constrs,omitempty"`
}

type ScaleConstr struct {
	ShortLabel *Text  `yaml:"short_label,omitempty"`
	LowerLimit *Limit `yaml:"lower_limit,omitempty"`
	UpperLimit *Limit `yaml:"upper_limit,omitempty"`
	Validity   string `yaml:"validity,omitempty"`
}

type Unit struct {
	ShortName         string             `yaml:"short_name"`
	DisplayName       string             `yaml:"display_name,omitempty"`
	FactorSIToUnit    *float64           `yaml:"factor_si_to_unit,omitempty"`
	OffsetSIToUnit    *float64           `yaml:"offset_si_to_unit,omitempty"`
	PhysicalDimension *PhysicalDimension `yaml:"physical_dimension,omitempty"`
}

type PhysicalDimension struct {
	ShortName            string `yaml:"short_name"`
	LengthExp            *int32 `yaml:"length_exp,omitempty"`
	MassExp              *int32 `yaml:"mass_exp,omitempty"`
	TimeExp              *int32 `yaml:"time_exp,omitempty"`
	CurrentExp           *int32 `yaml:"current_exp,omitempty"`
	TemperatureExp       *int32 `yaml:"temperature_exp,omitempty"`
	MolarAmountExp       *int32 `yaml:"molar_amount_exp,omitempty"`
	LuminousIntensityExp *int32 `yaml:"luminous_intensity_exp,omitempty"`
}

type StateChart struct {
	ShortName   string            `yaml:"short_name"`
	Semantic    string            `yaml:"semantic,omitempty"`
	StartState  string            `yaml:"start_state,omitempty"`
	States      []State           `yaml:"states,omitempty"`
	Transitions []StateTransition `yaml:"transitions,omitempty"`
}

type State struct {
	ShortName string `yaml:"short_name"`
	LongName  *Text  `yaml:"long_name,omitempty"`
}

type StateTransition struct {
	ShortName string `yaml:"short_name"`
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
}

type AdditionalAudience struct {
	ShortName string `yaml:"short_name"`
	LongName  *Text  `yaml:"long_name,omitempty"`
}

// Audience restricts visibility of a service or job. Enabled and Disabled
// hold additional-audience short-names.
type Audience struct {
	Enabled         []string `yaml:"enabled,omitempty"`
	Disabled        []string `yaml:"disabled,omitempty"`
	IsSupplier      bool     `yaml:"is_supplier,omitempty"`
	IsDevelopment   bool     `yaml:"is_development,omitempty"`
	IsManufacturing bool     `yaml:"is_manufacturing,omitempty"`
	IsAfterSales    bool     `yaml:"is_after_sales,omitempty"`
	IsAfterMarket   bool     `yaml:"is_after_market,omitempty"`
}

// VariantPattern selects its variant when every matching parameter holds.
type VariantPattern struct {
	MatchingParameters []MatchingParameter `yaml:"matching_parameters"`
}

// MatchingParameter identifies an observed value by the service that reads
// it and the response parameter it lands in.
type MatchingParameter struct {
	DiagService           string `yaml:"diag_service"`
	OutParam              string `yaml:"out_param"`
	ExpectedValue         string `yaml:"expected_value"`
	UsePhysicalAddressing *bool  `yaml:"use_physical_addressing,omitempty"`
}

// Dtc is a diagnostic trouble code. TroubleCode is the numeric id and Level
// its severity.
type Dtc struct {
	ShortName          string  `yaml:"short_name"`
	TroubleCode        uint32  `yaml:"trouble_code"`
	DisplayTroubleCode string  `yaml:"display_trouble_code,omitempty"`
	Level              *uint32 `yaml:"level,omitempty"`
	Texts              []Text  `yaml:"texts,omitempty"`
	IsTemporary        bool    `yaml:"is_temporary,omitempty"`
}

type MemoryConfig struct {
	DefaultAddressFormat AddressFormat  `yaml:"default_address_format"`
	Regions              []MemoryRegion `yaml:"regions,omitempty"`
	DataBlocks           []DataBlock    `yaml:"data_blocks,omitempty"`
}

type AddressFormat struct {
	AddressBytes uint32 `yaml:"address_bytes"`
	LengthBytes  uint32 `yaml:"length_bytes"`
}

type MemoryRegion struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description,omitempty"`
	StartAddress  uint64   `yaml:"start_address"`
	Size          uint64   `yaml:"size"`
	Access        string   `yaml:"access,omitempty"`
	SecurityLevel string   `yaml:"security_level,omitempty"`
	Sessions      []string `yaml:"sessions,omitempty"`
}

type DataBlock struct {
	Name           string  `yaml:"name"`
	Type           string  `yaml:"type,omitempty"`
	MemoryAddress  uint64  `yaml:"memory_address"`
	MemorySize     uint64  `yaml:"memory_size"`
	Format         string  `yaml:"format,omitempty"`
	MaxBlockLength *uint32 `yaml:"max_block_length,omitempty"`
	Session        string  `yaml:"session,omitempty"`
	ChecksumType   string  `yaml:"checksum_type,omitempty"`
}
