package domain

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ScriptCallback rewrites the body of the index-th inline script.
type ScriptCallback func(script string, index int) string

// InstrumentHTML runs every inline JavaScript <script> body of doc through
// callback and splices the results back. All other bytes are preserved.
func InstrumentHTML(doc string, callback ScriptCallback) string {
	tokenizer := html.NewTokenizer(strings.NewReader(doc))

	var (
		out      bytes.Buffer
		consumed int
		inScript bool
		index    int
	)

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		// Raw is only valid until the next call to Next, and TagName
		// lowercases it in place.
		raw := append([]byte(nil), tokenizer.Raw()...)
		consumed += len(raw)

		switch tt {
		case html.StartTagToken:
			inScript = isInstrumentableScript(tokenizer)
		case html.TextToken:
			if inScript && len(bytes.TrimSpace(raw)) > 0 {
				raw = []byte(callback(string(raw), index))
				index++
			}
		default:
			inScript = false
		}

		out.Write(raw)
	}

	if consumed < len(doc) {
		out.WriteString(doc[consumed:])
	}

	return out.String()
}

func isInstrumentableScript(tokenizer *html.Tokenizer) bool {
	name, hasAttr := tokenizer.TagName()
	if string(name) != "script" {
		return false
	}

	scriptType := ""

	for hasAttr {
		var key, val []byte

		key, val, hasAttr = tokenizer.TagAttr()

		switch string(key) {
		case "src":
			return false
		case "type":
			scriptType = strings.ToLower(strings.TrimSpace(string(val)))
		}
	}

	return isJavaScriptType(scriptType)
}

func isJavaScriptType(t string) bool {
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "", "module", "text/javascript", "application/javascript", "application/ecmascript",
		"text/ecmascript", "application/x-javascript", "text/x-javascript":
		return true
	}

	return false
}
