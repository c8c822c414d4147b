package store

import (
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/surgebase/porter2"
)

// symbolTextAnalyzerName is the custom bleve analyzer registered
// below: unicode tokenizer -> lowercase -> porter2 stemmer. Applied to
// the name/doc/signature fields so inflected forms such as "parses"
// and "parse" share a stem during fuzzy/prefix ranking. Identifiers are
// not split at case changes: "getUser" stays the single token "getuser".
const symbolTextAnalyzerName = "codanna_symbol_text"

// porter2FilterName is the bleve token-filter registration name for
// the porter2 English stemmer.
const porter2FilterName = "codanna_porter2"

func init() {
	_ = registry.RegisterTokenFilter(porter2FilterName, porter2FilterConstructor)
}

type porter2Filter struct{}

func (porter2Filter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, tok := range input {
		tok.Term = []byte(porter2.Stem(string(tok.Term)))
	}
	return input
}

func porter2FilterConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.TokenFilter, error) {
	return porter2Filter{}, nil
}

// textDoc is the document shape indexed into bleve: one per symbol,
// keyed by the decimal string form of its SymbolID.
type textDoc struct {
	Name       string `json:"name"`
	Signature  string `json:"signature"`
	DocComment string `json:"doc_comment"`
	Kind       string `json:"kind"`
	ModulePath string `json:"module_path"`
	Language   string `json:"language"`
	FilePath   string `json:"file_path"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.TypeField = "_type"

	analyzer := map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, porter2FilterName},
	}
	_ = im.AddCustomAnalyzer(symbolTextAnalyzerName, analyzer)
	im.DefaultAnalyzer = symbolTextAnalyzerName

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = symbolTextAnalyzerName
	docMapping.AddFieldMappingsAt("name", textField)
	docMapping.AddFieldMappingsAt("signature", textField)
	docMapping.AddFieldMappingsAt("doc_comment", textField)

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("kind", keywordField)
	docMapping.AddFieldMappingsAt("module_path", keywordField)
	docMapping.AddFieldMappingsAt("language", keywordField)
	docMapping.AddFieldMappingsAt("file_path", keywordField)

	im.DefaultMapping = docMapping
	return im
}

func openOrCreateText(path string) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		return bleve.Open(path)
	}
	return bleve.New(path, buildIndexMapping())
}
