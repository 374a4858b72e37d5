package payload

// Slot numbers are the zero-based field positions of each table in
// schemas/diagnostic_description.fbs. A union field takes two slots: the
// type tag first, then the value. Constants after the first "extra" of a
// table are diagconv additions appended behind the shared layout.

const (
	ecuVersion = iota
	ecuName
	ecuRevision
	ecuMetadata
	ecuFeatureFlags
	ecuVariants
	ecuFunctionalGroups
	ecuDtcs
	ecuMemory
	ecuNumFields
)

const (
	kvKey = iota
	kvValue
	kvNumFields
)

// Text and LongName share one layout.
const (
	textValue = iota
	textTI
	textNumFields
)

const (
	variantDiagLayer = iota
	variantIsBase
	variantPatterns
	variantParentRefs
	variantNumFields
)

const (
	groupDiagLayer = iota
	groupParentRefs
	groupNumFields
)

const (
	sharedDiagLayer = iota
	sharedNumFields
)

const (
	parentRefType = iota
	parentRef
	parentNotInheritedDiagComms
	parentNotInheritedVariables
	parentNotInheritedDops
	parentNotInheritedTables
	parentNotInheritedGlobalNegResponses
	parentPriority // extra
	parentNumFields
)

const (
	protocolDiagLayer = iota
	protocolComParamSpec
	protocolProtStack
	protocolParentRefs
	protocolNumFields
)

const (
	stackShortName = iota
	stackLongName
	stackPduProtocolType
	stackPhysicalLinkType
	stackComParamSubsetRefs
	stackNumFields
)

const (
	layerShortName = iota
	layerLongName
	layerFunctClasses
	layerComParamRefs
	layerDiagServices
	layerSingleEcuJobs
	layerStateCharts
	layerAdditionalAudiences
	layerSdgs
	layerNumFields
)

const (
	functClassShortName = iota
	functClassNumFields
)

const (
	simpleValue = iota
	simpleNumFields
)

const (
	complexEntriesType = iota
	complexEntries
	complexNumFields
)

const (
	comParamType = iota
	comParamShortName
	comParamLongName
	comParamClass
	comParamCpType
	comParamDisplayLevel
	comParamUsage
	comParamSpecificType
	comParamSpecific
	comParamNumFields
)

const (
	cpRefSimpleValue = iota
	cpRefComplexValue
	cpRefComParam
	cpRefProtocol
	cpRefProtStack
	cpRefNumFields
)

const (
	commShortName = iota
	commLongName
	commSemantic
	commFunctClass
	commSdgs
	commDiagClassType
	commPreConditionStateRefs
	commStateTransitionRefs
	commProtocols
	commAudience
	commIsMandatory
	commIsExecutable
	commIsFinal
	commDiagClassName // extra
	commNumFields
)

const (
	serviceDiagComm = iota
	serviceRequest
	servicePosResponses
	serviceNegResponses
	serviceIsCyclic
	serviceIsMultiple
	serviceAddressing
	serviceTransmissionMode
	serviceComParamRefs
	serviceNumFields
)

const (
	preCondValue = iota
	preCondInParamIfShortName
	preCondInParamPathShortName
	preCondState
	preCondNumFields
)

const (
	transRefValue = iota
	transRefStateTransition
	transRefNumFields
)

const (
	requestParams = iota
	requestSdgs
	requestShortName // extra
	requestNumFields
)

const (
	responseType = iota
	responseParams
	responseSdgs
	responseShortName // extra
	responseNumFields
)

const (
	paramID = iota
	paramType
	paramShortName
	paramSemantic
	paramSdgs
	paramPhysicalDefault
	paramBytePosition
	paramBitPosition
	paramSpecificType
	paramSpecific
	paramCodedValue // extra
	paramCodedValues
	paramPhysConstant
	paramDiagCodedType
	paramBitLength
	paramRequestBytePos
	paramByteLength
	paramDop
	paramDopRef
	paramDopUnresolved
	paramNumFields
)

const (
	codedConstValue = iota
	codedConstDiagCodedType
	codedConstNumFields
)

const (
	lengthKeyRefDop = iota
	lengthKeyRefNumFields
)

const (
	matchReqBytePos = iota
	matchReqByteLength
	matchReqNumFields
)

const (
	nrcConstValues = iota
	nrcConstDiagCodedType
	nrcConstNumFields
)

const (
	physConstValue = iota
	physConstDop
	physConstNumFields
)

const (
	reservedBitLength = iota
	reservedNumFields
)

const (
	systemDop = iota
	systemSysParam
	systemNumFields
)

const (
	valueDefault = iota
	valueDop
	valueNumFields
)

const (
	dopType = iota
	dopShortName
	dopSdgs
	dopSpecificType
	dopSpecific
	dopDiagCodedType // extra
	dopPhysicalType
	dopCompuMethod
	dopUnit
	dopInternalConstr
	dopPhysConstr
	dopParams
	dopByteSize
	dopNumFields
)

const (
	normalCompuMethod = iota
	normalDiagCodedType
	normalPhysicalType
	normalInternalConstr
	normalUnit
	normalPhysConstr
	normalNumFields
)

const (
	structParams = iota
	structByteSize
	structIsVisible
	structNumFields
)

const (
	envDataDtcValues = iota
	envDataParams
	envDataNumFields
)

const (
	dtcDopDiagCodedType = iota
	dtcDopPhysicalType
	dtcDopCompuMethod
	dtcDopDtcs
	dtcDopIsVisible
	dtcDopNumFields
)

const (
	dctType = iota
	dctBaseTypeEncoding
	dctBaseDataType
	dctHighLowByteOrder
	dctSpecificType
	dctSpecific
	dctTypeName // extra
	dctBitLength
	dctBitMask
	dctCondensed
	dctMinLength
	dctMaxLength
	dctTerminationName
	dctLengthKeyRef
	dctNumFields
)

const (
	leadingBitLength = iota
	leadingNumFields
)

const (
	minMaxMinLength = iota
	minMaxMaxLength
	minMaxTermination
	minMaxNumFields
)

const (
	paramLengthKey = iota
	paramLengthNumFields
)

const (
	standardBitLength = iota
	standardBitMask
	standardCondensed
	standardNumFields
)

const (
	compuCategory = iota
	compuInternalToPhys
	compuPhysToInternal
	compuCategoryName // extra
	compuNumFields
)

// CompuInternalToPhys and CompuPhysToInternal order their first two fields
// differently.
const (
	toPhysScales = iota
	toPhysProgCode
	toPhysDefault
	toPhysNumFields
)

const (
	toInternalProgCode = iota
	toInternalScales
	toInternalDefault
	toInternalNumFields
)

const (
	coEffsNumerator = iota
	coEffsDenominator
	coEffsNumFields
)

const (
	scaleShortLabel = iota
	scaleLowerLimit
	scaleUpperLimit
	scaleInverseValue
	scaleConst
	scaleRationalCoEffs
	scaleNumFields
)

const (
	valuesV = iota
	valuesVT
	valuesVTTI
	valuesNumFields
)

const (
	defaultValues = iota
	defaultInverseValues
	defaultNumFields
)

const (
	physPrecision = iota
	physBaseDataType
	physDisplayRadix
	physDisplayRadixName // extra
	physNumFields
)

const (
	constrLowerLimit = iota
	constrUpperLimit
	constrScaleConstrs
	constrNumFields
)

const (
	scaleConstrShortLabel = iota
	scaleConstrLowerLimit
	scaleConstrUpperLimit
	scaleConstrValidity
	scaleConstrValidityName // extra
	scaleConstrNumFields
)

const (
	limitValue = iota
	limitIntervalType
	limitIntervalTypeName // extra
	limitNumFields
)

const (
	unitShortName = iota
	unitDisplayName
	unitFactorSIToUnit
	unitOffsetSIToUnit
	unitPhysicalDimension
	unitNumFields
)

const (
	dimShortName = iota
	dimLongName
	dimLengthExp
	dimMassExp
	dimTimeExp
	dimCurrentExp
	dimTemperatureExp
	dimMolarAmountExp
	dimLuminousIntensityExp
	dimNumFields
)

const (
	dtcShortName = iota
	dtcTroubleCode
	dtcDisplayTroubleCode
	dtcText
	dtcLevel
	dtcSdgs
	dtcIsTemporary
	dtcTexts // extra
	dtcNumFields
)

const (
	patternMatchingParameters = iota
	patternNumFields
)

const (
	matchExpectedValue = iota
	matchDiagService
	matchOutParam
	matchUsePhysicalAddressing
	matchNumFields
)

const (
	jobDiagComm = iota
	jobProgCodes
	jobInputParams
	jobOutputParams
	jobNegOutputParams
	jobNumFields
)

const (
	progCodeFile = iota
	progEncryption
	progSyntax
	progRevision
	progEntryPoint
	progLibraries
	progNumFields
)

const (
	libShortName = iota
	libLongName
	libCodeFile
	libEncryption
	libSyntax
	libEntryPoint
	libNumFields
)

const (
	jobParamShortName = iota
	jobParamLongName
	jobParamPhysicalDefault
	jobParamDop
	jobParamSemantic
	jobParamDopRef // extra
	jobParamDopUnresolved
	jobParamNumFields
)

const (
	chartShortName = iota
	chartSemantic
	chartTransitions
	chartStartState
	chartStates
	chartNumFields
)

const (
	transitionShortName = iota
	transitionSource
	transitionTarget
	transitionNumFields
)

const (
	stateShortName = iota
	stateLongName
	stateNumFields
)

const (
	audienceEnabled = iota
	audienceDisabled
	audienceIsSupplier
	audienceIsDevelopment
	audienceIsManufacturing
	audienceIsAfterSales
	audienceIsAfterMarket
	audienceNumFields
)

const (
	addAudienceShortName = iota
	addAudienceLongName
	addAudienceNumFields
)

const (
	memoryAddressFormat = iota
	memoryRegions
	memoryDataBlocks
	memoryNumFields
)

const (
	addrFormatAddressBytes = iota
	addrFormatLengthBytes
	addrFormatNumFields
)

const (
	regionName = iota
	regionDescription
	regionStartAddress
	regionSize
	regionAccess
	regionAddressFormat
	regionSecurityLevel
	regionSessions
	regionAccessName // extra
	regionNumFields
)

const (
	blockName = iota
	blockDescription
	blockType
	blockMemoryAddress
	blockMemorySize
	blockFormat
	blockMaxBlockLength
	blockSecurityLevel
	blockSession
	blockChecksumType
	blockTypeName // extra
	blockFormatName
	blockNumFields
)
