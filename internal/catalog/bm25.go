package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"loxkit/internal/log"
)

// BM25Result represents a keyword search hit.
type BM25Result struct {
	ChunkID  string
	Score    float64
	FilePath string
}

// BM25Index provides BM25 keyword search over source chunks.
type BM25Index struct {
	index bleve.Index
	path  string
}

// NewBM25Index creates or opens a BM25 index next to the database.
// If the index is corrupted, it is deleted and recreated.
func NewBM25Index(dbPath string) (*BM25Index, error) {
	logger := log.WithComponent("bm25")
	indexPath := dbPath + ".bleve"

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create BM25 index: %w", err)
		}
		logger.Info().Str("event", "bm25.created").Str("path", indexPath).Msg("keyword index created")
	} else if err != nil {
		// Index exists but cannot be opened - delete and recreate
		logger.Warn().Str("event", "bm25.corrupted").Err(err).Msg("keyword index unreadable, recreating")

		if index != nil {
			index.Close()
		}

		if rmErr := os.RemoveAll(indexPath); rmErr != nil {
			logger.Warn().Str("event", "bm25.cleanup_failed").Err(rmErr).Msg("failed to remove index directory")
			storePath := filepath.Join(indexPath, "store")
			if rmErr := os.RemoveAll(storePath); rmErr != nil {
				logger.Warn().Str("event", "bm25.cleanup_failed").Err(rmErr).Msg("failed to remove store directory")
			}
		}

		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate BM25 index: %w", err)
		}
		logger.Info().Str("event", "bm25.recreated").Str("path", indexPath).Msg("keyword index recreated")
	}

	return &BM25Index{
		index: index,
		path:  indexPath,
	}, nil
}

// buildIndexMapping creates the index mapping for source chunks.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	chunkMapping := bleve.NewDocumentMapping()

	// Exact-match fields
	chunkIDField := bleve.NewTextFieldMapping()
	chunkIDField.Analyzer = keyword.Name
	chunkIDField.Store = true
	chunkIDField.Index = true
	chunkMapping.AddFieldMappingsAt("chunk_id", chunkIDField)

	workspaceIDField := bleve.NewTextFieldMapping()
	workspaceIDField.Analyzer = keyword.Name
	workspaceIDField.Store = true
	workspaceIDField.Index = true
	chunkMapping.AddFieldMappingsAt("workspace_id", workspaceIDField)

	filePathField := bleve.NewTextFieldMapping()
	filePathField.Analyzer = keyword.Name
	filePathField.Store = true
	filePathField.Index = true
	chunkMapping.AddFieldMappingsAt("file_path", filePathField)

	// Analyzed fields
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = false
	textField.Index = true
	chunkMapping.AddFieldMappingsAt("text", textField)

	symbolNameField := bleve.NewTextFieldMapping()
	symbolNameField.Analyzer = standard.Name
	symbolNameField.Store = false
	symbolNameField.Index = true
	chunkMapping.AddFieldMappingsAt("symbol_name", symbolNameField)

	containerField := bleve.NewTextFieldMapping()
	containerField.Analyzer = standard.Name
	containerField.Store = false
	containerField.Index = true
	chunkMapping.AddFieldMappingsAt("container", containerField)

	signatureField := bleve.NewTextFieldMapping()
	signatureField.Analyzer = standard.Name
	signatureField.Store = false
	signatureField.Index = true
	chunkMapping.AddFieldMappingsAt("signature", signatureField)

	indexMapping.DefaultMapping = chunkMapping

	return indexMapping
}

// ChunkDoc carries the searchable view of a chunk into the index.
type ChunkDoc struct {
	Chunk     Chunk
	Container string
	Signature string
}

func chunkDocFields(doc ChunkDoc) map[string]interface{} {
	return map[string]interface{}{
		"chunk_id":     doc.Chunk.ChunkID,
		"workspace_id": doc.Chunk.WorkspaceID,
		"file_path":    doc.Chunk.FilePath,
		"text":         doc.Chunk.Text,
		"symbol_name":  doc.Chunk.SymbolName,
		"container":    doc.Container,
		"signature":    doc.Signature,
	}
}

// IndexChunk indexes a single chunk for keyword search.
func (b *BM25Index) IndexChunk(doc ChunkDoc) error {
	return b.index.Index(doc.Chunk.ChunkID, chunkDocFields(doc))
}

// BatchIndex indexes multiple chunks in one batch.
func (b *BM25Index) BatchIndex(docs []ChunkDoc) error {
	batch := b.index.NewBatch()

	for _, doc := range docs {
		if err := batch.Index(doc.Chunk.ChunkID, chunkDocFields(doc)); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", doc.Chunk.ChunkID, err)
		}
	}

	return b.index.Batch(batch)
}

// DeleteChunk removes a chunk from the index.
func (b *BM25Index) DeleteChunk(chunkID string) error {
	return b.index.Delete(chunkID)
}

// DeleteChunks removes multiple chunks in one batch.
func (b *BM25Index) DeleteChunks(chunkIDs []string) error {
	batch := b.index.NewBatch()

	for _, chunkID := range chunkIDs {
		batch.Delete(chunkID)
	}

	return b.index.Batch(batch)
}

// Search performs a BM25 search scoped to a workspace and returns the top
// k results. Glob patterns restrict hits to matching file paths.
func (b *BM25Index) Search(query string, workspaceID string, globs []string, k int) ([]BM25Result, error) {
	q := bleve.NewMatchQuery(query)

	workspaceQuery := bleve.NewTermQuery(workspaceID)
	workspaceQuery.SetField("workspace_id")

	combinedQuery := bleve.NewConjunctionQuery(q, workspaceQuery)

	if len(globs) > 0 {
		disjunction := bleve.NewDisjunctionQuery()
		for _, glob := range globs {
			wildcardQuery := bleve.NewWildcardQuery(convertGlobToPattern(glob))
			wildcardQuery.SetField("file_path")
			disjunction.AddQuery(wildcardQuery)
		}

		combinedQuery = bleve.NewConjunctionQuery(combinedQuery, disjunction)
	}

	searchRequest := bleve.NewSearchRequest(combinedQuery)
	searchRequest.Size = k
	searchRequest.Fields = []string{"chunk_id", "file_path"}

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("BM25 search failed: %w", err)
	}

	results := make([]BM25Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		result := BM25Result{
			ChunkID: hit.ID,
			Score:   hit.Score,
		}

		if filePath, ok := hit.Fields["file_path"].(string); ok {
			result.FilePath = filePath
		}

		results = append(results, result)
	}

	return results, nil
}

// Reset deletes the index contents and recreates an empty index.
// Used by full rebuilds.
func (b *BM25Index) Reset() error {
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close BM25 index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("failed to remove BM25 index: %w", err)
	}

	index, err := bleve.New(b.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to recreate BM25 index: %w", err)
	}
	b.index = index
	logger := log.WithComponent("bm25")
	logger.Info().Str("event", "bm25.reset").Str("path", b.path).Msg("keyword index reset")
	return nil
}

// Close closes the BM25 index.
func (b *BM25Index) Close() error {
	return b.index.Close()
}

// GetPath returns the filesystem path of the BM25 index.
func (b *BM25Index) GetPath() string {
	return b.path
}

// convertGlobToPattern converts a glob pattern to a Bleve wildcard pattern.
// Bleve wildcards: * matches any sequence, ? matches a single character.
func convertGlobToPattern(glob string) string {
	// ** (any directory depth) collapses to *
	pattern := strings.ReplaceAll(glob, "**", "*")

	// Match anywhere in the path unless the glob is already anchored
	if !strings.HasPrefix(pattern, "*") {
		pattern = "*" + pattern
	}

	return pattern
}
