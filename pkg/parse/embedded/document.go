// Package embedded parses the JSON state that listing and search pages
// embed in <script> tags, with CSS fallbacks for when no state is found.
package embedded

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const source = "html"

const (
	nextDataSelector = "script#__NEXT_DATA__"
	deferredSelector = "script[data-deferred-state], script[id^='data-deferred-state']"
)

// document is a parsed page plus the JSON roots found in it.
type document struct {
	html *goquery.Document
	raw  []byte

	nextData gjson.Result
	deferred []deferredState
}

// deferredState is one deferred-state blob and its niobeClientData payloads.
type deferredState struct {
	blob    gjson.Result
	entries []gjson.Result
}

func load(raw []byte, stage string) (*document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, stay.Parse(source, stage, "empty input")
	}
	raw = tree.Sanitize(raw)
	html, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, stay.Parse(source, stage, "unreadable document: "+err.Error())
	}

	doc := &document{html: html, raw: raw}
	if text := html.Find(nextDataSelector).First().Text(); gjson.Valid(text) {
		doc.nextData = gjson.Parse(text)
	}
	html.Find(deferredSelector).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !gjson.Valid(text) {
			return
		}
		st := deferredState{blob: gjson.Parse(text)}
		for _, entry := range tree.Array(st.blob, "niobeClientData") {
			if inner := entry.Get("1"); entry.IsArray() && inner.Exists() {
				st.entries = append(st.entries, inner)
			}
		}
		doc.deferred = append(doc.deferred, st)
	})
	return doc, nil
}

// roots lists the JSON payloads in lookup order: __NEXT_DATA__, then for
// each deferred-state script its niobe entries followed by the whole blob.
func (d *document) roots() []gjson.Result {
	var out []gjson.Result
	if d.nextData.Exists() {
		out = append(out, d.nextData)
	}
	for _, st := range d.deferred {
		out = append(out, st.entries...)
		out = append(out, st.blob)
	}
	return out
}

// today is the reference date for past-day detection.
var today = func() string {
	return time.Now().UTC().Format(stay.DateLayout)
}
