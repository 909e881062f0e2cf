package glossary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperrors "github.com/ppiankov/healthlens/internal/errors"
)

//go:embed default.yaml
var defaultGlossary []byte

// Default returns the built-in glossary of common health terms
func Default() *Glossary {
	g, err := Load(bytes.NewReader(defaultGlossary))
	if err != nil {
		panic(fmt.Sprintf("built-in glossary is invalid: %v", err))
	}
	return g
}

// Load reads a YAML glossary document of the form
//
//	flu:
//	  - may reduce risk
//	  - can help
//
// Terms keep the order they appear in the document. An empty document yields
// an empty glossary.
func Load(r io.Reader) (*Glossary, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, apperrors.Malformed("glossary.load", "invalid YAML: %v", err)
	}

	g := New()
	if len(doc.Content) == 0 {
		return g, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, apperrors.InvalidType("glossary.load", "document root must be a mapping of term to phrases (line %d)", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		if key.Kind != yaml.ScalarNode {
			return nil, apperrors.InvalidType("glossary.load", "term at line %d is not a string", key.Line)
		}
		phrases, err := decodePhrases(key.Value, value)
		if err != nil {
			return nil, err
		}
		if err := g.Add(key.Value, phrases...); err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}
	}

	return g, nil
}

func decodePhrases(term string, node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, apperrors.Malformed("glossary.load", "term %q must map to a list of phrases (line %d)", term, node.Line)
	}

	phrases := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, apperrors.Malformed("glossary.load", "phrase for term %q at line %d is not a string", term, item.Line)
		}
		phrases = append(phrases, item.Value)
	}
	return phrases, nil
}

// LoadFile reads a glossary from path
func LoadFile(path string) (*Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glossary: %w", err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Save writes the glossary as YAML, terms in insertion order
func (g *Glossary) Save(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range g.Entries() {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range e.Phrases {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p})
		}
		if len(seq.Content) == 0 {
			seq.Style = yaml.FlowStyle
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Term},
			seq,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the glossary to path, creating parent directories
func (g *Glossary) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create glossary directory: %w", err)
	}

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write glossary: %w", err)
	}
	return nil
}
