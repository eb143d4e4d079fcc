package core

import (
	"regexp"
	"strings"

	"teaser-gen/config"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var sectorKeywords = []struct {
	keyword string
	label   string
}{
	{"solar", "Solar Energy"},
	{"wind", "Wind Energy"},
	{"battery", "Energy Storage"},
	{"storage", "Energy Storage"},
	{"hydrogen", "Hydrogen Energy"},
	{"hydro", "Hydro Energy"},
	{"nuclear", "Nuclear Energy"},
	{"geothermal", "Geothermal Energy"},
	{"biomass", "Biomass Energy"},
	{"data center", "Data Centers"},
	{"infrastructure", "Infrastructure"},
	{"real estate", "Real Estate"},
	{"technology", "Technology"},
	{"healthcare", "Healthcare"},
	{"manufacturing", "Manufacturing"},
	{"new energy", "New Energy"},
	{"renewable", "New Energy"},
}

var (
	titleCaser = cases.Title(language.English)

	paragraphMarker   = regexp.MustCompile(`(?i)paragraph\s*\d+\s*:`)
	calledPattern     = regexp.MustCompile(`(?i)called\s+["'“]([^"'”]+)["'”]`)
	investmentPattern = regexp.MustCompile(`(?i)initial investment of\s+([^,]+),\s*with a projected expansion to\s+([^.\n]+)`)
	dollarPattern     = regexp.MustCompile(`(?i)\$[\d,.]+(?:\s*(?:million|billion|thousand|m|bn|k)\b)?`)
	capitalPhrase     = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*\b`)

	instructionWords = map[string]bool{
		"Using": true, "Use": true, "Write": true, "Follow": true, "Sentence": true, "Do": true,
		"Excel": true, "English": true, "Initial": true, "Future": true, "The": true, "Based": true,
		"Generate": true, "Describe": true, "Keep": true, "Paragraph": true, "Include": true,
	}
)

// localSectorLabel maps sector keywords to a 1-3 word label.
func localSectorLabel(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, s := range sectorKeywords {
		if strings.Contains(lower, s.keyword) {
			return s.label
		}
	}
	if quoted := quotedSpans(prompt); len(quoted) > 0 {
		return titleCaser.String(trimWords(quoted[0].Text, 3, false))
	}
	return "New Energy"
}

func activityVerb(prompt string) string {
	lower := strings.ToLower(prompt)
	operates := strings.Contains(lower, "operat")
	develops := strings.Contains(lower, "develop")
	switch {
	case operates && develops:
		return "developing and operating"
	case operates:
		return "operating"
	default:
		return "developing"
	}
}

func clean(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), ".!?;, ")
}

// localClientOneLiner builds "The client is <verb> <asset> in <location>." from quoted values:
// the first long quoted value is the asset, the next quoted value the location.
func localClientOneLiner(prompt string) string {
	spans := quotedSpans(prompt)
	asset := -1
	for i, s := range spans {
		if len([]rune(s.Text)) >= 20 {
			asset = i
			break
		}
	}
	if asset < 0 {
		for i, s := range spans {
			if len([]rune(s.Text)) >= 5 {
				asset = i
				break
			}
		}
	}
	if asset < 0 {
		return "The client is developing renewable energy projects."
	}

	out := "The client is " + activityVerb(prompt) + " " + clean(spans[asset].Text)
	if asset+1 < len(spans) {
		out += " in " + clean(spans[asset+1].Text)
	}
	return out + "."
}

// localProjectHighlight always returns three paragraphs: operations and focus, scope and
// partnerships, investment.
func localProjectHighlight(prompt string) string {
	sections := paragraphMarker.Split(prompt, -1)
	section := func(i int) string {
		if i < len(sections) {
			return sections[i]
		}
		return ""
	}

	var p1 string
	q1 := quotedAtLeast(section(1), 10)
	if len(q1) > 0 {
		p1 = "The client " + clean(q1[0]) + "."
		focus := ""
		if len(q1) > 1 {
			focus = clean(q1[1])
		} else if m := calledPattern.FindStringSubmatch(prompt); m != nil {
			focus = clean(m[1])
		}
		if focus != "" {
			p1 += " The proposed project is the " + focus + "."
		}
	} else {
		p1 = "The client operates an established portfolio of projects in its core market."
	}

	var p2 string
	q2 := quotedAtLeast(section(2), 10)
	if len(q2) > 0 {
		parts := []string{"The client " + clean(q2[0]) + "."}
		if len(q2) > 1 {
			partnership := clean(q2[1])
			if strings.Contains(partnership, "partnered") && !strings.HasPrefix(partnership, "are ") {
				parts = append(parts, "They are "+partnership+".")
			} else {
				parts = append(parts, "They "+partnership+".")
			}
		}
		if len(q2) > 2 {
			parts = append(parts, endWithPeriod(upperFirst(clean(q2[2]))))
		}
		p2 = strings.Join(parts, " ")
	} else {
		p2 = "The client delivers the project with experienced construction and operating partners."
	}

	var p3 string
	if m := investmentPattern.FindStringSubmatch(prompt); m != nil {
		p3 = "The project will commence with an initial investment of " + clean(m[1]) +
			", with a projected expansion to " + clean(m[2]) + "."
	} else if q3 := quotedAtLeast(section(3), 2); len(q3) >= 2 {
		p3 = "The project will commence with an initial investment of " + clean(q3[0]) +
			", with a projected expansion to " + clean(q3[1]) + "."
	} else if len(q3) == 1 {
		p3 = "The project will commence with an initial investment of " + clean(q3[0]) + "."
	} else {
		p3 = "Project details are being finalized."
	}

	return strings.Join([]string{p1, p2, p3}, "\n\n")
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func promptValues(prompt string) []string {
	var values []string
	for _, s := range quotedSpans(prompt) {
		values = append(values, s.Text)
	}
	values = append(values, dollarPattern.FindAllString(prompt, -1)...)
	for _, c := range capitalPhrase.FindAllString(prompt, -1) {
		if !instructionWords[c] && len(c) > 2 {
			values = append(values, c)
		}
	}

	var unique []string
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) > 1 && !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}

func toneSentences(tone config.Tone) int {
	switch tone {
	case config.ToneShort:
		return 1
	case config.ToneLong:
		return 3
	default:
		return 2
	}
}

// localGeneric writes template sentences around the values named in the prompt.
func localGeneric(prompt string, tone config.Tone) string {
	d := parseLengthDirectives(prompt)
	values := promptValues(prompt)

	if d.MaxWords > 0 && d.MaxWords <= 10 {
		if len(values) > 0 {
			return trimWords(values[0], d.MaxWords, false)
		}
		return "Professional solutions"
	}

	target := toneSentences(tone)
	switch {
	case d.Sentences > 0:
		target = d.Sentences
	case d.Paragraphs > 0:
		target = d.Paragraphs * 3
	}

	var sentences []string
	switch {
	case len(values) >= 2:
		sentences = append(sentences, values[0]+" delivers innovative solutions in "+values[1]+".")
	case len(values) == 1:
		sentences = append(sentences, values[0]+" represents excellence in its field.")
	default:
		sentences = append(sentences, "Professional solutions delivered with expertise.")
	}
	filler := []string{
		"Advanced capabilities ensure outstanding results.",
		"Proven track record of success across diverse initiatives.",
		"Strategic partnerships and innovation create lasting value.",
		"Disciplined execution keeps delivery on schedule and on budget.",
		"A clear growth plan supports long-term performance.",
	}
	if len(values) >= 3 {
		filler[0] = "Leveraging " + values[2] + ", the organization drives exceptional outcomes."
	}
	for i := 0; len(sentences) < target; i++ {
		sentences = append(sentences, filler[i%len(filler)])
	}

	if d.Paragraphs > 1 {
		var paragraphs []string
		per := (len(sentences) + d.Paragraphs - 1) / d.Paragraphs
		for i := 0; i < len(sentences); i += per {
			end := i + per
			if end > len(sentences) {
				end = len(sentences)
			}
			paragraphs = append(paragraphs, strings.Join(sentences[i:end], " "))
		}
		return strings.Join(paragraphs, "\n\n")
	}
	return strings.Join(sentences, " ")
}
