package metadata

import (
	"strings"

	"golang.org/x/text/language"
)

// regionDefaults covers the bare language codes TMDB's own docs call out
// as not defaulting to their ISO region (e.g. "en" -> "en-US", not
// "en-EN"); anything else falls back to doubling the language as its region.
var regionDefaults = map[string]string{
	"en": "en-US",
	"es": "es-US",
	"zh": "zh-CN",
	"pt": "pt-BR",
}

// normalizeLanguage maps a bare or already-tagged language code to the
// region-qualified BCP-47 tag TMDB expects, defaulting unknown/empty input
// to "en-US". Parsing goes through golang.org/x/text/language rather than
// hand-splitting on "-"/"_" so odd casing ("EN-us", "en_GB") round-trips
// the same way a real Accept-Language header would.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en-US"
	}

	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return "en-US"
	}
	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence == language.Exact {
		return base.String() + "-" + region.String()
	}
	if def, ok := regionDefaults[base.String()]; ok {
		return def
	}
	return base.String() + "-" + strings.ToUpper(base.String())
}
