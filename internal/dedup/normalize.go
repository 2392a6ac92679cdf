package dedup

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSuffixes are stripped from the end of a lowercased name, in order.
var nameSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s+inc\.?$`),
	regexp.MustCompile(`\s+llc\.?$`),
	regexp.MustCompile(`\s+ltd\.?$`),
	regexp.MustCompile(`\s+corp\.?$`),
	regexp.MustCompile(`\s+co\.?$`),
	regexp.MustCompile(`\s+western wear\.?$`),
	regexp.MustCompile(`\s+boot store\.?$`),
	regexp.MustCompile(`\s+boots\.?$`),
	regexp.MustCompile(`\s+store\.?$`),
	regexp.MustCompile(`\s+shop\.?$`),
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

// addressReplacements rewrite street words to their USPS abbreviations.
var addressReplacements = []replacement{
	{regexp.MustCompile(`\bstreet\b`), "st"},
	{regexp.MustCompile(`\bst\.`), "st"},
	{regexp.MustCompile(`\bavenue\b`), "ave"},
	{regexp.MustCompile(`\bave\.`), "ave"},
	{regexp.MustCompile(`\broad\b`), "rd"},
	{regexp.MustCompile(`\brd\.`), "rd"},
	{regexp.MustCompile(`\bdrive\b`), "dr"},
	{regexp.MustCompile(`\bdr\.`), "dr"},
	{regexp.MustCompile(`\bboulevard\b`), "blvd"},
	{regexp.MustCompile(`\bblvd\.`), "blvd"},
	{regexp.MustCompile(`\bsuite\b`), "ste"},
	{regexp.MustCompile(`\bste\.`), "ste"},
	{regexp.MustCompile(`\bnorth\b`), "n"},
	{regexp.MustCompile(`\bsouth\b`), "s"},
	{regexp.MustCompile(`\beast\b`), "e"},
	{regexp.MustCompile(`\bwest\b`), "w"},
}

var (
	punctRe     = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spaceRe     = regexp.MustCompile(`\s+`)
	cityZipRe   = regexp.MustCompile(`([\p{L}\s]+),\s*([A-Z]{2})\s*\d{5}`)
	cityStateRe = regexp.MustCompile(`([\p{L}\s]+),\s*([A-Z]{2})`)
)

// fold lowercases s and strips combining marks so "Café" and "cafe" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func clean(s string) string {
	s = punctRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NormalizeName reduces a place name to its matching key: lowercased,
// trailing corporate/retail suffixes removed, punctuation stripped and
// whitespace collapsed. Letters and digits of any script are kept.
func NormalizeName(name string) string {
	name = fold(strings.TrimSpace(name))
	for _, re := range nameSuffixes {
		name = re.ReplaceAllString(name, "")
	}
	return clean(name)
}

// NormalizeAddress lowercases an address, abbreviates common street words
// and strips punctuation.
func NormalizeAddress(addr string) string {
	addr = fold(addr)
	for _, r := range addressReplacements {
		addr = r.re.ReplaceAllString(addr, r.with)
	}
	return clean(addr)
}

// ExtractCityState parses "City, ST 12345" or "City, ST" out of a formatted
// address. Both results are empty when neither pattern matches.
func ExtractCityState(addr string) (city, state string) {
	for _, re := range []*regexp.Regexp{cityZipRe, cityStateRe} {
		if m := re.FindStringSubmatch(addr); m != nil {
			return strings.TrimSpace(m[1]), m[2]
		}
	}
	return "", ""
}

// Similarity returns the longest-matching-subsequence ratio of a and b in [0, 1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
