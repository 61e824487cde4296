package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrMalformedResponse is returned when a page body cannot be treated as markup
var ErrMalformedResponse = errors.New("malformed response")

// Extractor applies independent extraction rules to a detail page
type Extractor struct {
	Selectors Selectors
}

// NewExtractor creates an extractor; zero selectors fall back to the defaults
func NewExtractor(selectors Selectors) *Extractor {
	if selectors == (Selectors{}) {
		selectors = DefaultSelectors()
	}
	return &Extractor{Selectors: selectors}
}

// Extract parses body and runs every rule. It fails only when body is not
// markup at all; a missing region just leaves that field at its default.
func (e *Extractor) Extract(body io.Reader) (PartialFields, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return PartialFields{}, fmt.Errorf("%w: read body: %v", ErrMalformedResponse, err)
	}
	if !looksLikeHTML(raw) {
		return PartialFields{}, fmt.Errorf("%w: body does not look like HTML (%d bytes)", ErrMalformedResponse, len(raw))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return PartialFields{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return e.ExtractDocument(doc), nil
}

// ExtractDocument runs every rule over an already parsed document
func (e *Extractor) ExtractDocument(doc *goquery.Document) PartialFields {
	return PartialFields{
		Title:       e.title(doc),
		TagList:     directTexts(doc.Find(e.Selectors.Tags)),
		Deck:        e.deck(doc),
		EarlyAccess: present(doc, e.Selectors.EarlyAccess),
		VROnly:      present(doc, e.Selectors.VRRequired),
		VRSupported: present(doc, e.Selectors.VRSupported),
		VRPCInput:   directTexts(doc.Find(e.Selectors.VRWarning)),
	}
}

// title returns the first non-blank text node directly under the title region
func (e *Extractor) title(doc *goquery.Document) *string {
	texts := directTexts(doc.Find(e.Selectors.Title))
	if len(texts) == 0 {
		return nil
	}
	title := texts[0]
	return &title
}

// deck reads the compatibility attribute of the config block. A missing block
// or attribute yields "", as many pages never carry it.
func (e *Extractor) deck(doc *goquery.Document) string {
	value, exists := doc.Find(e.Selectors.Config).First().Attr(e.Selectors.DeckAttr)
	if !exists {
		return ""
	}
	return value
}

// present reports whether selector matched at least one node
func present(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

// directTexts collects the trimmed text nodes that are direct children of
// each selected element, in document order. Blank nodes are dropped.
func directTexts(sel *goquery.Selection) []string {
	texts := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				if child.Type != html.TextNode {
					continue
				}
				// Whitespace-only nodes between child tags are dropped, not kept as ""
				if text := strings.TrimSpace(child.Data); text != "" {
					texts = append(texts, text)
				}
			}
		}
	})
	return texts
}

// looksLikeHTML applies the same cheap check used for rendered responses
func looksLikeHTML(data []byte) bool {
	if len(bytes.TrimSpace(data)) == 0 {
		return false
	}
	lower := bytes.ToLower(data)
	return bytes.Contains(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<!doctype")) ||
		bytes.Contains(lower, []byte("<body"))
}
