// Package trigger implements the CSV-extraction trigger: an ingest-time SAX
// filter (C6) that watches for a configured element path, captures its text,
// splits it on a separator, and re-emits the pieces as child elements of the
// captured element —
// plus the HCL-based loader (D4) that turns a trigger configuration file
// into the compiled form the filter runs against.
package trigger

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/agentic-research/mache-xml/internal/coreerr"
)

// EmitRule binds one split index to the local name of the element that
// carries it downstream.
type EmitRule struct {
	Index   int
	Element string
}

// Extraction is one configured capture rule: a path to watch, an optional
// attribute predicate gating capture, and the ordered emit rules applied to
// the captured text once split.
type Extraction struct {
	Path      string
	Predicate string // raw "name eq \"value\"", or "" for no predicate
	Emits     []EmitRule
}

// Config is a trigger's configuration after HCL decoding: a separator and
// the extractions it watches for.
type Config struct {
	Name       string
	Separator  string
	Extractions []Extraction
}

// --- HCL decoding shape ---

type configFile struct {
	Trigger *triggerBlock `hcl:"trigger,block"`
}

type triggerBlock struct {
	Name        string            `hcl:"name,label"`
	Separator   string            `hcl:"separator"`
	Extractions []extractionBlock `hcl:"extraction,block"`
}

type extractionBlock struct {
	Path      string      `hcl:"path"`
	Predicate string      `hcl:"predicate,optional"`
	Emits     []emitBlock `hcl:"emit,block"`
}

type emitBlock struct {
	IndexLabel string `hcl:"index,label"`
	Element    string `hcl:"element"`
}

// predicatePattern matches the single predicate shape the core understands:
// an attribute local name, the literal "eq", and a double-quoted value.
var predicatePattern = regexp.MustCompile(`^\s*(\w+)\s+eq\s+"([^"]*)"\s*$`)

// LoadTriggerConfig parses an HCL trigger document and returns its compiled
// configuration. Every failure wraps ErrInvalidTriggerConfig: HCL parse and
// decode failures (including a missing separator) carry the parser's own
// diagnostics with file:line:column positions; an emit label that isn't an
// integer or a predicate that isn't of the "name eq \"value\"" shape is
// reported with the file and trigger name.
func LoadTriggerConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("trigger: parse %s: %s: %w", filename, diags.Error(), coreerr.ErrInvalidTriggerConfig)
	}

	var raw configFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("trigger: decode %s: %s: %w", filename, diags.Error(), coreerr.ErrInvalidTriggerConfig)
	}
	if raw.Trigger == nil {
		return nil, fmt.Errorf("trigger: %s: no trigger block: %w", filename, coreerr.ErrInvalidTriggerConfig)
	}

	return compileConfig(raw.Trigger, filename)
}

func compileConfig(tb *triggerBlock, filename string) (*Config, error) {
	if tb.Separator == "" {
		return nil, fmt.Errorf("trigger: %s: trigger %q: missing separator: %w", filename, tb.Name, coreerr.ErrInvalidTriggerConfig)
	}

	cfg := &Config{Name: tb.Name, Separator: tb.Separator}
	for _, eb := range tb.Extractions {
		if eb.Predicate != "" && !predicatePattern.MatchString(eb.Predicate) {
			return nil, fmt.Errorf("trigger: %s: trigger %q: predicate %q is not of the form `name eq \"value\"`: %w",
				filename, tb.Name, eb.Predicate, coreerr.ErrInvalidTriggerConfig)
		}

		emits := make([]EmitRule, 0, len(eb.Emits))
		for _, emit := range eb.Emits {
			idx, err := strconv.Atoi(emit.IndexLabel)
			if err != nil {
				return nil, fmt.Errorf("trigger: %s: trigger %q: emit label %q is not an integer: %w",
					filename, tb.Name, emit.IndexLabel, coreerr.ErrInvalidTriggerConfig)
			}
			emits = append(emits, EmitRule{Index: idx, Element: emit.Element})
		}
		// Ordering guarantee: extracted children appear in index order
		// regardless of configuration order, so sort once here rather than
		// on every endElement.
		sort.Slice(emits, func(i, j int) bool { return emits[i].Index < emits[j].Index })

		cfg.Extractions = append(cfg.Extractions, Extraction{
			Path:      eb.Path,
			Predicate: eb.Predicate,
			Emits:     emits,
		})
	}
	return cfg, nil
}
