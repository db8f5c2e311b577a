package embedded

import (
	"os"
	"path/filepath"
	"testing"
)

// seedCorpus adds every testdata fixture plus a few hostile shapes.
func seedCorpus(f *testing.F) {
	f.Helper()
	entries, err := os.ReadDir("testdata")
	if err != nil {
		f.Fatalf("reading testdata: %v", err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		if err != nil {
			f.Fatalf("reading %s: %v", e.Name(), err)
		}
		f.Add(data)
	}
	f.Add([]byte(""))
	f.Add([]byte("\xff\xfe<script id=\"__NEXT_DATA__\">{\"props\":"))
	f.Add([]byte(`<script data-deferred-state>{"niobeClientData":[[1],[2,null],"x"]}</script>`))
	f.Add([]byte(`<script id="__NEXT_DATA__">` + nested(200) + `</script>`))
}

func nested(depth int) string {
	s := ""
	for i := 0; i < depth; i++ {
		s += `{"a":[`
	}
	for i := 0; i < depth; i++ {
		s += `]}`
	}
	return s
}

func FuzzSearch(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, raw []byte) {
		res, err := Search(raw, baseURL)
		if err != nil {
			return
		}
		if len(res.Listings) == 0 {
			t.Fatal("success without listings")
		}
		for _, l := range res.Listings {
			if l.ID == "" {
				t.Fatal("listing without id")
			}
			if l.PricePerNight < 0 {
				t.Fatalf("negative price %v", l.PricePerNight)
			}
			if l.Rating != nil && (*l.Rating < 1 || *l.Rating > 5) {
				t.Fatalf("rating out of range: %v", *l.Rating)
			}
		}
	})
}

func FuzzDetail(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, raw []byte) {
		d, err := Detail(raw, "1", baseURL)
		if err != nil {
			return
		}
		if d.ID != "1" || d.Name == "" {
			t.Fatalf("detail without identity: %+v", d)
		}
		if d.PricePerNight < 0 {
			t.Fatalf("negative price %v", d.PricePerNight)
		}
	})
}

func FuzzCalendar(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, raw []byte) {
		cal, err := Calendar(raw, "1")
		if err != nil {
			return
		}
		if len(cal.Days) == 0 {
			t.Fatal("success without days")
		}
		for _, d := range cal.Days {
			if d.Date == "" {
				t.Fatal("day without date")
			}
			if d.Available && d.UnavailabilityReason != nil {
				t.Fatal("available day carries a reason")
			}
		}
	})
}

func FuzzReviews(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, raw []byte) {
		page, err := Reviews(raw, "1")
		if err != nil {
			return
		}
		if len(page.Reviews) == 0 && page.Summary == nil {
			t.Fatal("success without reviews or summary")
		}
	})
}

func FuzzHost(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, raw []byte) {
		h, err := Host(raw)
		if err != nil {
			return
		}
		if h.Languages == nil {
			t.Fatal("nil languages")
		}
	})
}
