package errors

// Kind identifies a class of pipeline failure.
//
// Codes are grouped by phase:
// E001-E099: source errors
// E100-E199: schema errors
// E200-E299: normalization errors
// E300-E399: duplicate and redirect errors (W3xx for warnings)
// E400-E499: export errors
type Kind string

const (
	KindSourceReadFailure       Kind = "SourceReadFailure"
	KindSchemaViolation         Kind = "SchemaViolation"
	KindMissingRequiredField    Kind = "MissingRequiredField"
	KindSlugFormatViolation     Kind = "SlugFormatViolation"
	KindDefinitionTooShort      Kind = "DefinitionTooShort"
	KindInvalidControversyLevel Kind = "InvalidControversyLevel"
	KindDuplicateSlug           Kind = "DuplicateSlug"
	KindDuplicateNameConflict   Kind = "DuplicateNameConflict"
	KindRedirectConflict        Kind = "RedirectConflict"
	KindRedirectTargetMissing   Kind = "RedirectTargetMissing"
	KindRedirectChain           Kind = "RedirectChain"
	KindUnresolvedSeeAlso       Kind = "UnresolvedSeeAlso"
	KindRetiredWithoutRedirect  Kind = "RetiredWithoutRedirect"
	KindSizeLimitExceeded       Kind = "SizeLimitExceeded"
	KindArtifactWriteFailure    Kind = "ArtifactWriteFailure"
)

// Phases a diagnostic can originate from
const (
	PhaseSource    = "source"
	PhaseSchema    = "schema"
	PhaseNormalize = "normalize"
	PhaseResolve   = "resolve"
	PhaseExport    = "export"
)

type kindInfo struct {
	code    string
	phase   string
	summary string
}

var kinds = map[Kind]kindInfo{
	KindSourceReadFailure:       {"E001", PhaseSource, "Source document missing, unreadable or unparsable"},
	KindSchemaViolation:         {"E100", PhaseSchema, "Document shape does not match the schema"},
	KindMissingRequiredField:    {"E200", PhaseNormalize, "Required field is missing or empty"},
	KindSlugFormatViolation:     {"E201", PhaseNormalize, "Slug does not match the slug format"},
	KindDefinitionTooShort:      {"E202", PhaseNormalize, "Definition is too short"},
	KindInvalidControversyLevel: {"E203", PhaseNormalize, "Invalid controversy level"},
	KindDuplicateSlug:           {"E300", PhaseResolve, "Duplicate slug"},
	KindDuplicateNameConflict:   {"E301", PhaseResolve, "Duplicate term name or alias"},
	KindRedirectConflict:        {"E302", PhaseResolve, "Redirect source is an active slug"},
	KindRedirectTargetMissing:   {"E303", PhaseResolve, "Redirect target is not an active slug"},
	KindRedirectChain:           {"E304", PhaseResolve, "Redirect points at another redirect"},
	KindUnresolvedSeeAlso:       {"W310", PhaseResolve, "Cross-reference does not resolve"},
	KindRetiredWithoutRedirect:  {"W311", PhaseResolve, "Published slug removed without a redirect"},
	KindSizeLimitExceeded:       {"E400", PhaseExport, "Artifact exceeds the size limit"},
	KindArtifactWriteFailure:    {"E401", PhaseExport, "Artifact could not be written"},
}

// Code returns the stable code for the kind
func (k Kind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return "E000"
}

// Phase returns the pipeline phase the kind belongs to
func (k Kind) Phase() string {
	return kinds[k].phase
}

// Summary returns the default one-line description of the kind
func (k Kind) Summary() string {
	return kinds[k].summary
}
