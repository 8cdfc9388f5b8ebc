package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for analysis documents.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Handle is already case-folded; keyword keeps underscores intact for prefix search.
	handleFieldMapping := bleve.NewTextFieldMapping()
	handleFieldMapping.Analyzer = keyword.Name
	handleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("handle", handleFieldMapping)

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = simple.Name
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("display_name", nameFieldMapping)

	// Description - searchable but not stored
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Colors - exact "#rrggbb" terms
	colorsFieldMapping := bleve.NewTextFieldMapping()
	colorsFieldMapping.Analyzer = keyword.Name
	colorsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("colors", colorsFieldMapping)

	scoreFieldMapping := bleve.NewNumericFieldMapping()
	scoreFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("harmony_score", scoreFieldMapping)

	analyzedAtFieldMapping := bleve.NewNumericFieldMapping()
	analyzedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("analyzed_at", analyzedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
