// Package memodex is a Go client for searching and loading credit memos in
// OpenSearch.
//
// The client compiles structured requests (facet criteria plus weighted text
// queries) into engine query bodies, normalizes responses, and ingests memos
// in bulk with per-item error reporting.
//
//	client, _ := memodex.New(ctx,
//	    memodex.WithOpenSearch("http://localhost:9200"),
//	    memodex.WithIndex("memos"),
//	)
//	defer client.Close()
//
//	_, _ = client.Index().Ensure(ctx)
//	out := client.Memos().BulkUpsert(ctx, memos)
//
//	res, _ := client.Search().Do(ctx, memodex.NewRequest().
//	    Where("region", "India").
//	    Should(memodex.Match{Query: "currency risk"}).
//	    Facets())
//
// # Agent requests
//
// AgentRequest builds the flat request used by automated agents: facet
// filters on industry, region and currency, and one should-query per phrase
// matched against the risk narrative.
//
//	req := memodex.AgentRequest([]string{"Energy"}, nil, []string{"USD"},
//	    []string{"refinancing risk"}, 5)
//	res, _ := client.Search().Do(ctx, req)
package memodex
