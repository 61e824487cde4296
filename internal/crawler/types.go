package crawler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// GameRecord is the normalized record emitted for every successfully extracted page.
// Every field is always present: lists are never nil and deck is "" when unknown.
type GameRecord struct {
	GameID      string   `json:"game_id"`
	Title       *string  `json:"title"`
	TagList     []string `json:"tag_list"`
	Deck        string   `json:"deck"`
	EarlyAccess bool     `json:"early_access"`
	VROnly      bool     `json:"vr_only"`
	VRSupported bool     `json:"vr_supported"`
	VRPCInput   []string `json:"vr_pcinput"`
}

// TitleOrEmpty returns the title, or "" when the page had none
func (r GameRecord) TitleOrEmpty() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// String renders a short human readable summary for debug logs
func (r GameRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title = %s : game_id = %s : tags = %v : deck = %q", r.TitleOrEmpty(), r.GameID, r.TagList, r.Deck)
	fmt.Fprintf(&b, " | Early Access = %t | VR Only = %t | VR Supported = %t | VR with PC Input = %v",
		r.EarlyAccess, r.VROnly, r.VRSupported, r.VRPCInput)
	return b.String()
}

// PartialFields holds what the extractor found on one page. Absent regions
// leave their zero value; the assembler turns those into record defaults.
type PartialFields struct {
	Title       *string
	TagList     []string
	Deck        string
	EarlyAccess bool
	VROnly      bool
	VRSupported bool
	VRPCInput   []string
}

// SessionContext is the static cookie set that satisfies the age gate.
// It is built once and never mutated, so it is shared by all workers.
type SessionContext struct {
	cookies []*http.Cookie
}

// NewSessionContext creates a session context from name/value pairs
func NewSessionContext(values map[string]string) *SessionContext {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	// stable order keeps the Cookie header deterministic
	slices.Sort(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: values[name]})
	}
	return &SessionContext{cookies: cookies}
}

// DefaultSessionContext asserts an adult browsing session born 1 January 1976
func DefaultSessionContext() *SessionContext {
	return NewSessionContext(map[string]string{
		"wants_mature_content": "1",
		"birthtime":            "189302401",
		"lastagecheckage":      "1-January-1976",
	})
}

// Cookies returns copies of the session cookies
func (s *SessionContext) Cookies() []*http.Cookie {
	out := make([]*http.Cookie, len(s.cookies))
	for i, c := range s.cookies {
		cp := *c
		out[i] = &cp
	}
	return out
}

// Value returns the value of a named cookie
func (s *SessionContext) Value(name string) (string, bool) {
	for _, c := range s.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// CrawlRequest is a detail page request for one catalog entry
type CrawlRequest struct {
	AppID   string
	URL     string
	Session *SessionContext
}

// Selectors contains CSS selectors for the regions each extraction rule reads
type Selectors struct {
	Title       string
	Tags        string
	Config      string
	DeckAttr    string
	EarlyAccess string
	VRRequired  string
	VRSupported string
	VRWarning   string
}

// DefaultSelectors matches the store detail page markup. Class selectors use
// exact attribute matches so that e.g. "glance_tags popular_tags" is not
// confused with other tag blocks.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:       `div[class="apphub_AppName"]`,
		Tags:        `div[class="glance_tags popular_tags"] > a`,
		Config:      `div#application_config`,
		DeckAttr:    "data-deckcompatibility",
		EarlyAccess: `div[class="early_access_header"]`,
		VRRequired:  `span[class="vr_required"]`,
		VRSupported: `span[class="vr_supported"]`,
		VRWarning:   `div[class="VR_warning"]`,
	}
}
