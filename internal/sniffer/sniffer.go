// Package sniffer decides whether a loaded document looks like a raw JSON
// payload and extracts the candidate text. It has no side effects.
package sniffer

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// ProcessedAttr marks the root element of a page that already holds a viewer.
const ProcessedAttr = "data-jvx-processed"

// Verdict is the outcome of sniffing.
type Verdict int

const (
	NotJSON Verdict = iota
	MaybeJSON
	DefinitelyJSON
)

func (v Verdict) String() string {
	switch v {
	case NotJSON:
		return "not-json"
	case MaybeJSON:
		return "maybe-json"
	case DefinitelyJSON:
		return "definitely-json"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Document is a loaded page as seen before any viewer touches it.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
	// TopLevel is false for documents loaded into frames or embeds.
	TopLevel bool
}

// Result carries the verdict and, for JSON verdicts, the candidate text.
type Result struct {
	Verdict   Verdict
	Candidate string
}

// IsJSON reports whether the verdict is MaybeJSON or DefinitelyJSON.
func (r Result) IsJSON() bool { return r.Verdict != NotJSON }

// Sniff classifies doc.
func Sniff(doc Document) Result {
	switch kind := mediaKind(doc.ContentType); kind {
	case kindJSON:
		return Result{Verdict: DefinitelyJSON, Candidate: string(doc.Body)}
	case kindText:
		// A browser shows a text/plain body as the sole <pre> of a generated page.
		text := string(doc.Body)
		if startsLikeContainer(text) {
			return Result{Verdict: MaybeJSON, Candidate: text}
		}
	case kindHTML:
		return sniffHTML(doc.Body)
	}
	return Result{Verdict: NotJSON}
}

type mediaClass int

const (
	kindOther mediaClass = iota
	kindJSON
	kindText
	kindHTML
)

// IsJSONMediaType reports whether contentType names a JSON media type:
// application/json, text/json, or any +json suffix. Parameters are ignored.
func IsJSONMediaType(contentType string) bool {
	return mediaKind(contentType) == kindJSON
}

func mediaKind(contentType string) mediaClass {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	switch {
	case mt == "application/json", mt == "text/json", strings.HasSuffix(mt, "+json"):
		return kindJSON
	case mt == "text/plain", mt == "":
		return kindText
	case mt == "text/html", mt == "application/xhtml+xml":
		return kindHTML
	default:
		return kindOther
	}
}

func sniffHTML(body []byte) Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{Verdict: NotJSON}
	}
	if v, ok := doc.Find("html").Attr(ProcessedAttr); ok && v == "true" {
		return Result{Verdict: NotJSON}
	}

	var meaningful []*goquery.Selection
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			if strings.TrimSpace(s.Text()) != "" {
				meaningful = append(meaningful, s)
			}
		case "#comment":
		default:
			meaningful = append(meaningful, s)
		}
	})
	if len(meaningful) != 1 || goquery.NodeName(meaningful[0]) != "pre" {
		return Result{Verdict: NotJSON}
	}
	text := meaningful[0].Text()
	if !startsLikeContainer(text) {
		return Result{Verdict: NotJSON}
	}
	return Result{Verdict: MaybeJSON, Candidate: text}
}

// startsLikeContainer reports whether the first character that is neither
// whitespace nor a byte order mark opens an object or array.
func startsLikeContainer(text string) bool {
	i := strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsSpace(r) && r != '\uFEFF'
	})
	return i >= 0 && (text[i] == '{' || text[i] == '[')
}
