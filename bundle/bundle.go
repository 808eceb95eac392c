// Package bundle writes the per-role configuration documents read by the
// consumer, producer and aggregator applications. One bundle of four
// documents is produced for every algorithm variant:
//
//	algorithm/<variant>/conconfig.ini      consumer
//	algorithm/<variant>/proconfig.ini      producer
//	algorithm/<variant>/aggregatorcat.ini  aggregator intake
//	algorithm/<variant>/aggregatorput.ini  aggregator emit
//
// Every value is derived from the chunk plan, the label, the variant or a
// fixed constant, so emitting twice gives byte-identical files.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"github.com/adamgarcia4/goLearning/ndnagg/sizing"
)

// DefaultRoot is the directory workspaces are created under.
const DefaultRoot = "configure"

// ErrUnsafeValue is returned for values that the INI writer would quote.
var ErrUnsafeValue = errors.New("value cannot be written unquoted")

// unsafeChars make ini.v1 wrap a value in backticks or triple quotes.
const unsafeChars = "#;`\r\n"

// ini.v1 only exposes its layout as package variables; renderMu serializes
// renders that set them and restores the caller's values afterwards.
var renderMu sync.Mutex

// Params are the inputs shared by every document.
type Params struct {
	Label    string
	Plan     sizing.ChunkPlan
	Variants []Variant
	// Root is the workspace root as seen from the experiment's working
	// directory; empty means DefaultRoot.
	Root string
}

func (p Params) root() string {
	if p.Root == "" {
		return DefaultRoot
	}
	return p.Root
}

// Dir returns the directory holding a variant's documents, relative to the
// workspace.
func Dir(v Variant) string {
	return filepath.Join("algorithm", string(v))
}

// Documents renders the four documents of one variant, keyed by file name.
func Documents(p Params, v Variant) (map[string][]byte, error) {
	docs := map[string]document{
		ConsumerFile:      consumerDocument(p),
		ProducerFile:      producerDocument(p),
		AggregatorCatFile: aggregatorCatDocument(p, v),
		AggregatorPutFile: aggregatorPutDocument(p),
	}

	out := make(map[string][]byte, len(docs))
	for name, doc := range docs {
		data, err := doc.render()
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// Emit writes every variant's documents under dir, which must be the
// workspace directory.
func Emit(dir string, p Params) error {
	if len(p.Variants) == 0 {
		p.Variants = Variants()
	}

	for _, v := range p.Variants {
		if _, err := ParseVariant(string(v)); err != nil {
			return err
		}

		docs, err := Documents(p, v)
		if err != nil {
			return fmt.Errorf("variant %s: %w", v, err)
		}

		variantDir := filepath.Join(dir, Dir(v))
		if err := os.MkdirAll(variantDir, 0o755); err != nil {
			return fmt.Errorf("variant %s: %w", v, err)
		}

		for _, name := range Files {
			if err := os.WriteFile(filepath.Join(variantDir, name), docs[name], 0o644); err != nil {
				return fmt.Errorf("variant %s: %w", v, err)
			}
		}
	}
	return nil
}

func (d document) render() ([]byte, error) {
	f := ini.Empty()
	for _, s := range d {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return nil, err
		}
		for _, k := range s.keys {
			if strings.ContainsAny(k.value, unsafeChars) || strings.TrimSpace(k.value) != k.value {
				return nil, fmt.Errorf("[%s] %s: %w: %q", s.name, k.name, ErrUnsafeValue, k.value)
			}
			if _, err := sec.NewKey(k.name, k.value); err != nil {
				return nil, fmt.Errorf("[%s] %s: %w", s.name, k.name, err)
			}
		}
	}

	renderMu.Lock()
	defer renderMu.Unlock()
	prettyFormat, prettyEqual := ini.PrettyFormat, ini.PrettyEqual
	defer func() { ini.PrettyFormat, ini.PrettyEqual = prettyFormat, prettyEqual }()

	// "key = value" without column alignment
	ini.PrettyFormat = false
	ini.PrettyEqual = true

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
