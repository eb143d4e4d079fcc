package config

// Canonical tags understood by templates (":ISSUER:" and friends).
const (
	TagIssuer           = "ISSUER"
	TagIndustry         = "INDUSTRY"
	TagJurisdiction     = "JURISDICTION"
	TagIssuanceType     = "ISSUANCE_TYPE"
	TagInitialNotional  = "INITIAL_NOTIONAL"
	TagCouponRate       = "COUPON_RATE"
	TagCouponFrequency  = "COUPON_FREQUENCY"
	TagTenor            = "TENOR"
	TagClientSummary    = "CLIENT_SUMMARY"
	TagProjectHighlight = "PROJECT_HIGHLIGHT"
)

// CanonicalTags lists the closed tag vocabulary in presentation order.
var CanonicalTags = []string{
	TagIssuer,
	TagIndustry,
	TagJurisdiction,
	TagIssuanceType,
	TagInitialNotional,
	TagCouponRate,
	TagCouponFrequency,
	TagTenor,
	TagClientSummary,
	TagProjectHighlight,
}

type Tone string

const (
	ToneShort  Tone = "short"
	ToneMedium Tone = "medium"
	ToneLong   Tone = "long"
)

// TagBinding lists the accepted spreadsheet labels for a tag. The first label is preferred.
type TagBinding struct {
	Tag    string   `json:"tag"    yaml:"tag"`
	Labels []string `json:"labels" yaml:"labels"`
}

// ModuleConfig describes one schema variant of the input spreadsheets.
type ModuleConfig struct {
	Name        string       `json:"name"                  yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []TagBinding `json:"tags"                  yaml:"tags"`
}

// FillConfig controls parsing and placeholder substitution.
type FillConfig struct {
	// Module forces a module instead of detecting one.
	Module         string  `json:"module,omitempty"         yaml:"module,omitempty"`
	MissingToBlank bool    `json:"missingToBlank"           yaml:"missingToBlank"`
	Namespacing    bool    `json:"namespacing"              yaml:"namespacing"`
	SearchLabels   *bool   `json:"searchLabels,omitempty"   yaml:"searchLabels,omitempty"`
	FuzzyThreshold float64 `json:"fuzzyThreshold,omitempty" yaml:"fuzzyThreshold,omitempty"`
	MaxFields      int     `json:"maxFields,omitempty"      yaml:"maxFields,omitempty"`
	Tone           Tone    `json:"tone,omitempty"           yaml:"tone,omitempty"`
}

// GenerationConfig selects the text generation backend.
type GenerationConfig struct {
	Provider       string  `json:"provider,omitempty"       yaml:"provider,omitempty"` // "local", "gemini", "openai"
	Model          string  `json:"model,omitempty"          yaml:"model,omitempty"`
	Endpoint       string  `json:"endpoint,omitempty"       yaml:"endpoint,omitempty"`
	APIKeyEnv      string  `json:"apiKeyEnv,omitempty"      yaml:"apiKeyEnv,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"    yaml:"temperature,omitempty"`
}

// DataSourceConfig: datasource config
type DataSourceConfig struct {
	Name   string `json:"name"   yaml:"name"`
	Driver string `json:"driver" yaml:"driver"` // "mysql", "postgres", "dynamodb", "csv", "xlsx"
	DSN    string `json:"dsn"    yaml:"dsn"`    // connection string, table name or file path
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
	Query  string `json:"query,omitempty" yaml:"query,omitempty"`
}

// OutputConfig names the filled deck. Name and Dir may reference ${param}.
type OutputConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Dir  string `json:"dir,omitempty"  yaml:"dir,omitempty"`
}

// Bundle is the single YAML document driving a run.
type Bundle struct {
	Modules     []ModuleConfig      `json:"modules,omitempty"     yaml:"modules,omitempty"`
	Aliases     map[string][]string `json:"aliases,omitempty"     yaml:"aliases,omitempty"`
	Fill        FillConfig          `json:"fill"                  yaml:"fill"`
	Generation  GenerationConfig    `json:"generation"            yaml:"generation"`
	DataSources []DataSourceConfig  `json:"dataSources,omitempty" yaml:"dataSources,omitempty"`
	Output      OutputConfig        `json:"output"                yaml:"output"`
	Parameters  map[string]string   `json:"parameters,omitempty"  yaml:"parameters,omitempty"`
}

// SearchLabelsEnabled reports whether the module-label search pass runs. Defaults to true.
func (f FillConfig) SearchLabelsEnabled() bool {
	return f.SearchLabels == nil || *f.SearchLabels
}
