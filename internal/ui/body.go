package ui

import (
	"bytes"
	"mime"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const highlightLimit = 256 * 1024

// renderBody pretty-prints JSON and, when syntax names a chroma style,
// highlights the result for a 256 color terminal.
func renderBody(body []byte, contentType, syntax string) string {
	text := prettyBody(body, contentType)
	if syntax == "" || len(text) == 0 || len(text) > highlightLimit {
		return text
	}
	return highlight(text, mediaType(contentType), syntax)
}

func prettyBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	if looksJSON(body, contentType) {
		return strings.TrimRight(string(pretty.Pretty(body)), "\n")
	}
	return string(body)
}

func looksJSON(body []byte, contentType string) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	mt := mediaType(contentType)
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func highlight(text, mt, syntax string) string {
	var lexer chroma.Lexer
	if mt != "" {
		lexer = lexers.MatchMimeType(mt)
	}
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return text
	}
	style := styles.Get(syntax)
	if style == nil {
		style = styles.Fallback
	}

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return text
	}
	return buf.String()
}
