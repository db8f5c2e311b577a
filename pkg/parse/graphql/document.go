// Package graphql parses responses from the site's persisted-query API and
// builds the variables those queries expect.
package graphql

import (
	"bytes"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const source = "graphql"

func load(raw []byte, stage string) (gjson.Result, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return gjson.Result{}, stay.Parse(source, stage, "empty response")
	}
	raw = tree.Sanitize(raw)
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, stay.Parse(source, stage, "response is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if msg, ok := tree.Str(root, "errors.0.message"); ok && !root.Get("data").IsObject() {
		return gjson.Result{}, stay.Parse(source, stage, "upstream error: "+msg)
	}
	return root, nil
}

// today is the reference date for past-day detection.
var today = func() string {
	return time.Now().UTC().Format(stay.DateLayout)
}
