// Package extract declares the extractor-contract output shape shared by
// internal/extractors, internal/orchestrator and the root kreuzberg package,
// kept free of a dependency on the root package so extractors never import
// their own caller.
package extract

// Table is one extracted table, already rendered to markdown alongside its
// raw cell grid.
type Table struct {
	Cells      [][]string `json:"cells" msgpack:"cells"`
	Markdown   string     `json:"markdown" msgpack:"markdown"`
	PageNumber int        `json:"page_number" msgpack:"page_number"`
}

// Output is what registry.Extractor.ExtractFile/ExtractBytes produce, wrapped
// in an interface{} at the registry boundary so the registry package itself
// never needs to know about it.
type Output struct {
	Content  string
	Metadata map[string]interface{}
	Tables   []Table
}
