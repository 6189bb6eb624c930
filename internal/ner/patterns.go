package ner

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// AccessionPattern is a compiled identifier-family pattern derived from one
// accession-number seed.  The pattern matches the whole family, not just the
// listed seed; seeds that fit no known family stay reachable through the
// exact-match path only.
type AccessionPattern struct {
	Seed       string
	TemplateID string
	Pattern    *regexp.Regexp
}

// Template identifiers for the supported accession families.
const (
	TemplateLocusTag        = "locus_tag"
	TemplatePrefixedAlnum   = "prefixed_alnum"
	TemplateChecksum        = "checksum_accession"
	TemplateAlnumCode       = "alnum_code"
	TemplatePrefixedNumeric = "prefixed_numeric"
)

// familyDetector pairs an anchored shape test with a pattern generator.
// Detectors are tried in order; the first whose shape test accepts the seed
// derives the pattern.  Every generated expression uses fixed repetition
// bounds only, so scanning stays linear in the text length.
type familyDetector struct {
	id     string
	shape  *regexp.Regexp
	derive func(seed string, groups []string) string
}

var familyDetectors = []familyDetector{
	{
		// Locus tags: a short letter prefix, a fixed-width digit block, and
		// an optional lowercase suffix.  "Rv0005" generalizes to Rv1305 and
		// Rv2001c but not Rv12 (wrong digit count).
		id:    TemplateLocusTag,
		shape: regexp.MustCompile(`^([A-Za-z]{1,3})(\d{3,5})([a-z]?)$`),
		derive: func(_ string, groups []string) string {
			return fmt.Sprintf(`\b%s\d{%d}[a-z]?\b`, regexp.QuoteMeta(groups[1]), len(groups[2]))
		},
	},
	{
		// Uppercase-prefixed free-length identifiers such as Mycobrowser
		// IDs ("MTCI00.01").  The tail must contain a digit so plain words
		// never derive a pattern.
		id:    TemplatePrefixedAlnum,
		shape: regexp.MustCompile(`^([A-Z]{2,4})([A-Za-z0-9.]{2,16})$`),
		derive: func(_ string, groups []string) string {
			return fmt.Sprintf(`\b%s[A-Za-z0-9.]{2,16}\b`, regexp.QuoteMeta(groups[1]))
		},
	},
	{
		// Checksum-style accessions with a fixed grammar (UniProt: P9WGR1).
		id:    TemplateChecksum,
		shape: regexp.MustCompile(`^[OPQ][0-9][A-Z0-9]{3}[0-9]$`),
		derive: func(_ string, _ []string) string {
			return `\b[OPQ][0-9][A-Z0-9]{3}[0-9]\b`
		},
	},
	{
		// Fixed-length alphanumeric codes starting with a digit (PDB: 4TZK).
		id:    TemplateAlnumCode,
		shape: regexp.MustCompile(`^[0-9][A-Z0-9]{3}$`),
		derive: func(_ string, _ []string) string {
			return `\b[0-9][A-Z0-9]{3}\b`
		},
	},
	{
		// Underscore-prefixed numeric identifiers (RefSeq: WP_003407354).
		id:    TemplatePrefixedNumeric,
		shape: regexp.MustCompile(`^([A-Z]{1,4}_)(\d{1,12})$`),
		derive: func(_ string, groups []string) string {
			return fmt.Sprintf(`\b%s\d{1,12}\b`, regexp.QuoteMeta(groups[1]))
		},
	},
}

// DerivePatterns classifies each seed against the family detectors and
// compiles one pattern per distinct (template, expression) pair.  Seeds that
// fit no family produce no pattern.  Two seeds of the same family with the
// same derived expression collapse to a single pattern.
func DerivePatterns(seeds []string) ([]AccessionPattern, error) {
	var out []AccessionPattern
	seen := make(map[string]struct{})

	for _, seed := range seeds {
		detector, groups, ok := detectFamily(seed)
		if !ok {
			continue
		}
		src := detector.derive(seed, groups)
		key := detector.id + "\x00" + src
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		compiled, err := regexp.Compile(src)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid,
				fmt.Sprintf("derived pattern %q from seed %q does not compile", src, seed))
		}
		out = append(out, AccessionPattern{Seed: seed, TemplateID: detector.id, Pattern: compiled})
	}
	return out, nil
}

// detectFamily returns the first detector whose shape test accepts the seed.
func detectFamily(seed string) (familyDetector, []string, bool) {
	for _, d := range familyDetectors {
		groups := d.shape.FindStringSubmatch(seed)
		if groups == nil {
			continue
		}
		if d.id == TemplatePrefixedAlnum && !containsDigit(groups[2]) {
			continue
		}
		return d, groups, true
	}
	return familyDetector{}, nil, false
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
