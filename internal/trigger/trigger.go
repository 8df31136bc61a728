package trigger

import (
	"log"
	"regexp"
	"strings"

	"github.com/agentic-research/mache-xml/internal/qname"
)

// Attr is one attribute as seen by the filter's startElement callback —
// enough to evaluate a predicate, nothing more.
type Attr struct {
	Name  qname.QName
	Value string
}

// Sink is the downstream SAX consumer: the storage ingest path (C6 → C4 →
// C2 in the data-flow sketch) sits behind this interface, so the filter
// itself never touches GIDs or bytes.
type Sink interface {
	StartElement(name qname.QName, attrs []Attr) error
	Characters(text []byte) error
	EndElement(name qname.QName) error
}

type compiledExtraction struct {
	pathSegments   []string
	predicateAttr  string
	predicateValue string
	hasPredicate   bool
	emits          []EmitRule // already sorted by Index
}

// Filter is the per-document SAX state machine: currentPath, capture and
// charBuf from the configured description, run against one compiled
// configuration for as many documents as are parsed with it. A Filter is
// not safe for concurrent use — matching the single-writer ingest pipeline
// it sits in front of.
type Filter struct {
	sink        Sink
	separatorRe *regexp.Regexp
	extractions []compiledExtraction
	logger      *log.Logger

	currentPath []string
	capture     bool
	captureExt  *compiledExtraction
	charBuf     []byte
}

// NewFilter compiles cfg once — path segments split, predicates parsed into
// attr/value pairs, the separator regex-escaped — and returns a Filter that
// can replay it over any number of SAX streams feeding sink. logger may be
// nil, in which case log.Default() is used.
func NewFilter(sink Sink, cfg *Config, logger *log.Logger) *Filter {
	if logger == nil {
		logger = log.Default()
	}
	f := &Filter{
		sink:        sink,
		separatorRe: regexp.MustCompile(regexp.QuoteMeta(cfg.Separator)),
		logger:      logger,
	}
	for _, ext := range cfg.Extractions {
		ce := compiledExtraction{
			pathSegments: strings.Split(strings.Trim(ext.Path, "/"), "/"),
			emits:        ext.Emits,
		}
		if ext.Predicate != "" {
			if m := predicatePattern.FindStringSubmatch(ext.Predicate); m != nil {
				ce.hasPredicate = true
				ce.predicateAttr = m[1]
				ce.predicateValue = m[2]
			}
		}
		f.extractions = append(f.extractions, ce)
	}
	return f
}

// StartElement pushes name onto currentPath, aborting any capture already in
// progress (a nested element inside a capture zone is not a CSV leaf), then
// opens a new capture if the resulting path matches a configured extraction
// whose predicate (if any) is satisfied by attrs.
func (f *Filter) StartElement(name qname.QName, attrs []Attr) error {
	if f.capture {
		f.logger.Printf("trigger: aborting capture at /%s: nested element %q opened inside capture zone",
			strings.Join(f.currentPath, "/"), name.Local())
		f.capture = false
		f.captureExt = nil
		f.charBuf = f.charBuf[:0]
	}
	f.currentPath = append(f.currentPath, name.Local())

	if ext := f.matchCurrentPath(); ext != nil && predicateSatisfied(ext, attrs) {
		f.capture = true
		f.captureExt = ext
		f.charBuf = f.charBuf[:0]
	}
	return f.sink.StartElement(name, attrs)
}

// Characters buffers text while a capture is open rather than emitting it;
// otherwise it passes through unchanged.
func (f *Filter) Characters(text []byte) error {
	if f.capture {
		f.charBuf = append(f.charBuf, text...)
		return nil
	}
	return f.sink.Characters(text)
}

// EndElement closes any open capture — splitting charBuf on the configured
// separator and emitting one synthetic element per emit rule whose index is
// in range, in ascending index order — then pops currentPath and forwards
// the end element downstream.
func (f *Filter) EndElement(name qname.QName) error {
	if f.capture {
		parts := f.separatorRe.Split(string(f.charBuf), -1)
		for _, emit := range f.captureExt.emits {
			if emit.Index >= len(parts) {
				continue
			}
			elemName := qname.New("", emit.Element, "")
			if err := f.sink.StartElement(elemName, nil); err != nil {
				return err
			}
			if err := f.sink.Characters([]byte(parts[emit.Index])); err != nil {
				return err
			}
			if err := f.sink.EndElement(elemName); err != nil {
				return err
			}
		}
		f.capture = false
		f.captureExt = nil
		f.charBuf = f.charBuf[:0]
	}

	if err := f.sink.EndElement(name); err != nil {
		return err
	}
	f.currentPath = f.currentPath[:len(f.currentPath)-1]
	return nil
}

func (f *Filter) matchCurrentPath() *compiledExtraction {
	for i := range f.extractions {
		ext := &f.extractions[i]
		if pathEqual(f.currentPath, ext.pathSegments) {
			return ext
		}
	}
	return nil
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func predicateSatisfied(ext *compiledExtraction, attrs []Attr) bool {
	if !ext.hasPredicate {
		return true
	}
	for _, a := range attrs {
		if a.Name.Local() == ext.predicateAttr && a.Value == ext.predicateValue {
			return true
		}
	}
	return false
}
