package config

const (
	DefaultFuzzyThreshold = 0.60
	DefaultMaxFields      = 500
	DefaultTimeoutSeconds = 30
	DefaultTemperature    = 0.3
	DefaultOutputName     = "teaser-${date}.pptx"
	DefaultOutputDir      = "output"
)

func module(name, description string, labels map[string]string) ModuleConfig {
	m := ModuleConfig{Name: name, Description: description}
	for _, tag := range CanonicalTags {
		if label, ok := labels[tag]; ok {
			m.Tags = append(m.Tags, TagBinding{Tag: tag, Labels: []string{label}})
		}
	}
	return m
}

// DefaultModules returns the three spreadsheet schemas shipped with the tool:
// sponsor-level (Module1), company-level (Module2) and project-level (Module3) intake forms.
func DefaultModules() []ModuleConfig {
	return []ModuleConfig{
		module("Module1", "sponsor intake form", map[string]string{
			TagIssuer:           "sponsor name",
			TagIndustry:         "primary focus area",
			TagJurisdiction:     "country of incorporation",
			TagIssuanceType:     "financing type",
			TagInitialNotional:  "total financing amount",
			TagCouponRate:       "coupon rate",
			TagCouponFrequency:  "coupon frequency",
			TagTenor:            "requested tenor",
			TagClientSummary:    "sponsor summary",
			TagProjectHighlight: "sponsor background investment strategy",
		}),
		module("Module2", "company intake form", map[string]string{
			TagIssuer:           "company legal name",
			TagIndustry:         "primary industry",
			TagJurisdiction:     "country of incorporation",
			TagIssuanceType:     "financing type",
			TagInitialNotional:  "total financing amount",
			TagCouponRate:       "coupon rate",
			TagCouponFrequency:  "coupon frequency",
			TagTenor:            "requested tenor",
			TagClientSummary:    "company overview business model",
			TagProjectHighlight: "company growth strategy financial projections",
		}),
		module("Module3", "project intake form", map[string]string{
			TagIssuer:           "project name",
			TagIndustry:         "project type",
			TagJurisdiction:     "project location country",
			TagIssuanceType:     "financing type",
			TagInitialNotional:  "total project cost",
			TagCouponRate:       "coupon rate",
			TagCouponFrequency:  "coupon frequency",
			TagTenor:            "project tenor",
			TagClientSummary:    "project description",
			TagProjectHighlight: "project overview technical specs impact",
		}),
	}
}

// DefaultAliases returns extra label wordings per tag, tried after the module labels.
// Keys outside CanonicalTags extend the tag vocabulary usable in templates.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		TagIssuer: {
			"issuer", "issuer name", "company name", "company", "name of company",
			"company legal name", "legal name", "entity name", "borrower", "borrower name",
			"sponsor name", "sponsor",
		},
		TagIndustry: {
			"industry", "sector", "industry sector", "business sector", "primary industry",
			"primary focus area", "focus area", "line of business",
		},
		TagJurisdiction: {
			"jurisdiction", "country", "location country", "country of incorporation",
			"domicile", "country of domicile", "project country",
		},
		TagIssuanceType: {
			"issuance type", "financing type", "type of financing", "instrument", "instrument type",
		},
		TagInitialNotional: {
			"initial notional", "notional", "notional amount", "principal", "principal amount",
			"financing amount", "issuance amount", "issue size", "total financing",
			"project cost", "total investment", "transaction size",
		},
		TagCouponRate: {
			"coupon", "interest rate", "annual coupon", "coupon percentage", "fixed rate",
		},
		TagCouponFrequency: {
			"frequency", "payment frequency", "interest frequency", "coupon payment frequency",
			"payment schedule",
		},
		TagTenor: {
			"tenor", "term", "maturity", "loan tenor", "financing tenor", "term length",
		},
		TagClientSummary: {
			"client summary", "executive summary", "company overview", "company summary",
			"business model", "issuer summary", "issuer overview",
		},
		TagProjectHighlight: {
			"project highlight", "project highlights", "key highlights", "highlights",
			"investment strategy", "growth strategy", "technical specs",
		},
		"COMPANY_NAME": {
			"company name", "company", "name of company", "issuer", "issuer name",
			"company legal name", "legal name", "entity name", "organization name",
			"client name", "borrower name",
		},
		"SPONSOR_NAME": {
			"sponsor name", "sponsor", "lead sponsor", "project sponsor", "equity sponsor",
			"sponsor legal name",
		},
		"LOCATION_COUNTRY": {
			"location country", "country", "jurisdiction", "country of incorporation",
			"project location country", "project country",
		},
		"LOCATION_STATE": {
			"location state", "state", "province", "region", "project location state",
			"project state", "city",
		},
		"ASSET_TYPE": {
			"asset type", "type of asset", "asset class", "asset category",
		},
		"PROJECT_TYPE": {
			"project type", "type of project", "development type", "project category",
		},
		"UNIT": {
			"unit", "capacity", "project size", "total capacity", "installed capacity",
			"nameplate capacity",
		},
		"TECHNOLOGY": {
			"technology", "technology type", "technical approach", "technical specs",
		},
		"INITIAL_INVESTMENT": {
			"initial investment", "initial capex", "phase 1 investment", "initial capital",
			"upfront investment", "initial funding",
		},
		"FUTURE_INVESTMENT": {
			"future investment", "expansion investment", "phase 2 investment", "growth capex",
			"expansion capital", "additional investment",
		},
		"CONTRACTOR": {
			"contractor", "epc contractor", "construction partner", "general contractor",
		},
		"OFFTAKER": {
			"offtaker", "offtake partner", "purchaser", "power purchaser", "off taker",
		},
		"PROJECT_STATUS": {
			"project status", "status", "development stage", "project stage", "project phase",
		},
		"COD": {
			"cod", "commercial operation date", "expected cod", "target cod", "commissioning date",
		},
		"DESCRIPTION": {
			"description", "project description", "overview", "project summary",
			"project overview",
		},
		"TITLE": {
			"title", "project title", "project name", "deal name", "transaction name",
		},
	}
}

// DefaultBundle returns a bundle usable without any YAML file.
func DefaultBundle() *Bundle {
	b := &Bundle{}
	ApplyDefaults(b)
	return b
}

// ApplyDefaults fills every unset field of b.
func ApplyDefaults(b *Bundle) {
	if len(b.Modules) == 0 {
		b.Modules = DefaultModules()
	}
	if b.Aliases == nil {
		b.Aliases = DefaultAliases()
	}
	if b.Fill.FuzzyThreshold == 0 {
		b.Fill.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if b.Fill.MaxFields == 0 {
		b.Fill.MaxFields = DefaultMaxFields
	}
	if b.Fill.Tone == "" {
		b.Fill.Tone = ToneMedium
	}
	if b.Generation.Provider == "" {
		b.Generation.Provider = "local"
	}
	if b.Generation.TimeoutSeconds == 0 {
		b.Generation.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if b.Generation.Temperature == 0 {
		b.Generation.Temperature = DefaultTemperature
	}
	if b.Output.Name == "" {
		b.Output.Name = DefaultOutputName
	}
	if b.Output.Dir == "" {
		b.Output.Dir = DefaultOutputDir
	}
	if b.Parameters == nil {
		b.Parameters = map[string]string{}
	}
	if _, ok := b.Parameters["date"]; !ok {
		b.Parameters["date"] = "$date:day:day:0"
	}
}
