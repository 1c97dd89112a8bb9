package script

import (
	"fmt"
	"regexp"
	"strings"
)

// commentSigil prefixes the synthetic keys carrying captured comments.
const commentSigil = "&"

// gluedKeywords are reserved two-word keywords joined to their following
// token so the tokenizer does not split them.
var gluedKeywords = []string{"scripted_trigger", "scripted_effect"}

var (
	// Quoted string literals, single line first, then the multi-line leftovers.
	reString      = regexp.MustCompile(`"[^"\n]*"`)
	reStringMulti = regexp.MustCompile(`"[^"]*"`)
	// Trailing comments introduced by one or more '#'.
	reComment = regexp.MustCompile(`(?m)(\s*)#+(.*)$`)
	// `key {` blocks missing their equal sign.
	reBlockNoEq = regexp.MustCompile(`(?m)^([^\s{=]+)\s*\{\s*$`)
	// Redundant `list` keyword after the equal sign.
	reListMark = regexp.MustCompile(`\s*=\s*list\s*([{"|])`)
	// Color blocks: `key = rgb { ... }` and friends.
	reColorBlock = regexp.MustCompile(`=\s*(rgb|hsv360|hsv|hls)\s*\{`)
	// Independent `key OPERATOR value` pairs sharing one line.
	reInlinePair = regexp.MustCompile(`([^\s"]+\s*[!<=>]+\s*(([^@"]\[?[^\s]+\]?)|("[^"]+")|(@\[[^\]]+\]))|(@\w+))`)
	// Keys left dangling with a bare `=` before or after a line break.
	reDanglingEq = regexp.MustCompile(`(=\s*\n+)|(\n+\s*=)`)
	// Runs of blank lines.
	reBlankRuns = regexp.MustCompile(`(\n\s*\n)+`)
)

// Normalize rewrites raw script text into the canonical line-per-token form
// consumed by the line parser. The passes are ordered and later passes assume
// earlier ones already ran. Normalization is total: any input produces some
// canonical text, and problems surface at the line parser instead.
//
// When comments is true, comment text is kept as synthetic `&N="..."` marker
// lines instead of being stripped.
func Normalize(text string, comments bool) string {
	var placeholders []string
	put := func(literal string) int {
		placeholders = append(placeholders, literal)
		return len(placeholders) - 1
	}
	token := func(index int) string {
		return fmt.Sprintf("|%d|", index)
	}

	// Quoted literals become placeholders so the structural passes never
	// touch content inside quotes.
	for _, literal := range reString.FindAllString(text, -1) {
		text = strings.Replace(text, literal, token(put(literal)), 1)
	}

	if comments {
		for _, m := range reComment.FindAllStringSubmatch(text, -1) {
			space := m[1]
			value := strings.TrimRight(strings.ReplaceAll(m[2], `"`, "'"), " \t\r")
			repl := ""
			if strings.TrimSpace(value) != "" {
				index := put(`"` + value + `"`)
				repl = fmt.Sprintf("\n%s%s%d=%s\n", space, commentSigil, index, token(index))
			}
			text = strings.Replace(text, m[0], repl, 1)
		}
	} else {
		text = reComment.ReplaceAllString(text, "")
	}

	// Remaining quoted literals span lines; collapse them to one line.
	for _, literal := range reStringMulti.FindAllString(text, -1) {
		collapsed := strings.TrimSpace(strings.ReplaceAll(literal, "\n", " "))
		text = strings.Replace(text, literal, token(put(collapsed)), 1)
	}

	text = reListMark.ReplaceAllString(text, "|list=${1}")
	text = reBlockNoEq.ReplaceAllString(text, "${1}={")
	text = strings.ReplaceAll(text, "{", "\n{\n")
	text = strings.ReplaceAll(text, "}", "\n}\n")
	text = reColorBlock.ReplaceAllString(text, "={\n${1}")
	text = reInlinePair.ReplaceAllString(text, "${1}\n")
	text = reDanglingEq.ReplaceAllString(text, "=")
	text = reBlankRuns.ReplaceAllString(text, "\n")

	for _, keyword := range gluedKeywords {
		text = strings.ReplaceAll(text, keyword+" ", keyword+"|")
	}

	for index, literal := range placeholders {
		text = strings.Replace(text, token(index), literal, 1)
	}

	return text
}
