package contextstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	ChunkSize    = 700
	ChunkOverlap = 70

	defaultDocType = "default"
	chunkCutset    = " \n\t●-–"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize separates glued words ("fooBar" -> "foo Bar"), collapses whitespace and trims.
func Normalize(text string) string {
	text = camelBoundary.ReplaceAllString(text, "$1 $2")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Splitter cuts normalized text into overlapping pieces.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// RecursiveSplitter prefers paragraph, then sentence, then clause boundaries.
type RecursiveSplitter struct {
	transformer document.Transformer
}

// NewRecursiveSplitter builds the default chunker.
func NewRecursiveSplitter(ctx context.Context) (*RecursiveSplitter, error) {
	t, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   ChunkSize,
		OverlapSize: ChunkOverlap,
		Separators:  []string{"\n\n", "\n", ".", "!", "?", ";", ",", " "},
		KeepType:    recursive.KeepTypeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("recursive splitter: %w", err)
	}
	return &RecursiveSplitter{transformer: t}, nil
}

func (s *RecursiveSplitter) Split(ctx context.Context, text string) ([]string, error) {
	if len([]rune(text)) <= ChunkSize {
		return []string{text}, nil
	}
	docs, err := s.transformer.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Content)
	}
	return out, nil
}

// Chunks normalizes, splits and cleans text. Empty pieces are dropped.
func Chunks(ctx context.Context, s Splitter, text string) ([]string, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, nil
	}
	pieces, err := s.Split(ctx, normalized)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.Trim(p, chunkCutset); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// ChunkPrefix is the id prefix shared by every chunk of one (subject, type, entity) document.
func ChunkPrefix(md Metadata) string {
	docType := md.Type
	if docType == "" {
		docType = defaultDocType
	}
	prefix := md.SubjectID + "_" + docType
	if md.Entity != "" {
		sum := md5.Sum([]byte(md.Entity))
		prefix += "_" + hex.EncodeToString(sum[:])
	}
	return prefix
}

// ChunkID returns the deterministic id of chunk i.
func ChunkID(md Metadata, i int) string {
	return fmt.Sprintf("%s_chunk_%d", ChunkPrefix(md), i)
}
