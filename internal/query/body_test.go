package query

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/memodex/internal/domain/search/request"
)

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(marshal(t, v)), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestNewSearchBody_Defaults(t *testing.T) {
	m := decode(t, NewSearchBody(newReq(t)))

	if m["size"] != float64(10) || m["from"] != float64(0) || m["track_total_hits"] != true {
		t.Errorf("paging = %v/%v/%v", m["size"], m["from"], m["track_total_hits"])
	}
	for _, k := range []string{"explain", "sort", "_source", "aggs"} {
		if _, ok := m[k]; ok {
			t.Errorf("%s present in default body", k)
		}
	}
	if _, ok := m["query"].(map[string]any)["bool"]; !ok {
		t.Error("query.bool missing")
	}
}

func TestNewSearchBody_Knobs(t *testing.T) {
	body := NewSearchBody(newReq(t,
		request.WithExplain(true),
		request.WithSort(request.SortField{Field: "clientName.keyword", Order: request.Desc}),
		request.WithSourceIncludes("memoId"),
		request.WithSize(3),
		request.WithFrom(6),
	))
	body.Aggs = Facets([]string{"region"})
	m := decode(t, body)

	if m["explain"] != true {
		t.Errorf("explain = %v", m["explain"])
	}
	if got := marshal(t, body.Sort); got != `[{"clientName.keyword":{"order":"desc"}}]` {
		t.Errorf("sort = %s", got)
	}
	if got := marshal(t, body.Source); got != `{"includes":["memoId"]}` {
		t.Errorf("_source = %s", got)
	}
	if got := marshal(t, body.Aggs); got != `{"region_facet":{"terms":{"field":"region","size":50}}}` {
		t.Errorf("aggs = %s", got)
	}
	if m["size"] != float64(3) || m["from"] != float64(6) {
		t.Errorf("size/from = %v/%v", m["size"], m["from"])
	}
}

func TestNewSearchBody_EmptyProjection(t *testing.T) {
	body := NewSearchBody(newReq(t, request.WithSourceExcludes()))
	if got := marshal(t, body.Source); got != `{"excludes":[]}` {
		t.Errorf("_source = %s", got)
	}
}

func TestNewScrollBody(t *testing.T) {
	got := marshal(t, NewScrollBody(newReq(t, request.WithSize(100), request.WithFrom(20))))
	want := `{"query":{"bool":{"filter":[],"must":[],"should":[],"minimum_should_match":0}},"size":100,"track_total_hits":true}`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestNewCountBody(t *testing.T) {
	got := marshal(t, NewCountBody(newReq(t)))
	want := `{"query":{"bool":{"filter":[],"must":[],"should":[],"minimum_should_match":0}}}`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}
