package cmd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/qname"
	"github.com/agentic-research/mache-xml/internal/trigger"
)

var ingestTriggerFile string

func init() {
	ingestCmd.Flags().StringVar(&ingestTriggerFile, "trigger", "", "HCL trigger configuration to run ahead of ingest")
	addStoreFlag(ingestCmd)
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> <doc-id>",
	Short: "Parse an XML file, run it through the configured trigger, and write it into the page store",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		file, docID := args[0], args[1]
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("ingest: read %s: %w", file, err)
		}

		cfg, err := resolveTriggerConfig()
		if err != nil {
			return err
		}

		tree := &treeSink{}
		filter := trigger.NewFilter(tree, cfg, nil)
		if err := parseXML(bytes.NewReader(data), tree, filter); err != nil {
			return fmt.Errorf("ingest: parse %s: %w", file, err)
		}
		if tree.root == nil {
			return fmt.Errorf("ingest: %s has no root element", file)
		}

		var observations []document.LevelBranchSample
		collectObservations(tree.root, 0, &observations)
		order := document.InferOrderTable(observations, document.DefaultInferConfig())

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w := document.NewWriter(store, docID, file, order, nil)
		for _, n := range tree.outerBefore {
			if _, err := w.WriteTopLevel(toDomNode(n)); err != nil {
				return err
			}
		}
		if _, err := writeElementSubtree(w, tree.root); err != nil {
			return err
		}
		for _, n := range tree.outerAfter {
			if _, err := w.WriteTopLevel(toDomNode(n)); err != nil {
				return err
			}
		}
		if err := w.Finish(); err != nil {
			return err
		}

		fmt.Fprintf(c.OutOrStdout(), "ingested %s as document %q (%d order levels)\n", file, docID, len(order))
		return nil
	},
}

func resolveTriggerConfig() (*trigger.Config, error) {
	if ingestTriggerFile == "" {
		// No extraction rules: a separator that can never appear in real
		// text keeps the filter a no-op pass-through.
		return &trigger.Config{Separator: "\x00"}, nil
	}
	src, err := os.ReadFile(ingestTriggerFile)
	if err != nil {
		return nil, fmt.Errorf("ingest: read trigger config %s: %w", ingestTriggerFile, err)
	}
	return trigger.LoadTriggerConfig(src, ingestTriggerFile)
}

// --- SAX decode -> in-memory tree ---
//
// encoding/xml's Decoder plays the role of the SAX source spec.md keeps
// external to the core; trigger.Filter sits between it and treeSink exactly
// as the data-flow sketch describes (SAX events -> C6 -> emitted DOM
// events). Comments and processing instructions are not part of the
// trigger's transition table, so they reach treeSink directly.

type xmlAttrNode struct {
	name  qname.QName
	value string
}

type xmlNode struct {
	kind     domnode.NodeType
	name     qname.QName
	attrs    []xmlAttrNode
	text     []byte
	piTarget string
	piData   string
	children []*xmlNode
}

// treeSink builds an in-memory xmlNode tree from SAX-shaped events so a
// pre-pass can observe branching factors (for InferOrderTable) before any
// GID is assigned. It implements trigger.Sink.
type treeSink struct {
	stack       []*xmlNode
	root        *xmlNode
	outerBefore []*xmlNode
	outerAfter  []*xmlNode
}

func (s *treeSink) StartElement(name qname.QName, attrs []trigger.Attr) error {
	n := &xmlNode{kind: domnode.Element, name: name}
	for _, a := range attrs {
		n.attrs = append(n.attrs, xmlAttrNode{name: a.Name, value: a.Value})
	}
	s.appendChild(n)
	s.stack = append(s.stack, n)
	return nil
}

func (s *treeSink) Characters(text []byte) error {
	if len(s.stack) == 0 {
		return nil
	}
	s.appendChild(&xmlNode{kind: domnode.Text, text: append([]byte(nil), text...)})
	return nil
}

func (s *treeSink) EndElement(qname.QName) error {
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

func (s *treeSink) Comment(data []byte) {
	s.appendChild(&xmlNode{kind: domnode.Comment, text: append([]byte(nil), data...)})
}

func (s *treeSink) ProcInst(target, data string) {
	s.appendChild(&xmlNode{kind: domnode.ProcessingInstruction, piTarget: target, piData: data})
}

func (s *treeSink) appendChild(n *xmlNode) {
	if len(s.stack) > 0 {
		parent := s.stack[len(s.stack)-1]
		parent.children = append(parent.children, n)
		return
	}
	if n.kind == domnode.Element {
		s.root = n
		return
	}
	if s.root == nil {
		s.outerBefore = append(s.outerBefore, n)
	} else {
		s.outerAfter = append(s.outerAfter, n)
	}
}

func parseXML(r io.Reader, sink *treeSink, filter *trigger.Filter) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([]trigger.Attr, len(t.Attr))
			for i, a := range t.Attr {
				attrs[i] = trigger.Attr{Name: qname.New(a.Name.Space, a.Name.Local, ""), Value: a.Value}
			}
			if err := filter.StartElement(qname.New(t.Name.Space, t.Name.Local, ""), attrs); err != nil {
				return err
			}
		case xml.EndElement:
			if err := filter.EndElement(qname.New(t.Name.Space, t.Name.Local, "")); err != nil {
				return err
			}
		case xml.CharData:
			if err := filter.Characters([]byte(t)); err != nil {
				return err
			}
		case xml.Comment:
			sink.Comment([]byte(t))
		case xml.ProcInst:
			sink.ProcInst(t.Target, string(t.Inst))
		}
	}
}

func toDomNode(n *xmlNode) *domnode.Node {
	if n.kind == domnode.ProcessingInstruction {
		return &domnode.Node{Type: domnode.ProcessingInstruction, PITarget: n.piTarget, PIData: n.piData}
	}
	return &domnode.Node{Type: domnode.Comment, TextValue: n.text}
}

// collectObservations walks the tree gathering one LevelBranchSample per
// element, letting InferOrderTable reservoir-sample the branching factor at
// each level before any node is written.
func collectObservations(n *xmlNode, level int, out *[]document.LevelBranchSample) {
	if n.kind != domnode.Element {
		return
	}
	*out = append(*out, document.LevelBranchSample{
		Level:      level,
		ChildCount: uint64(len(n.attrs) + len(n.children)),
	})
	for _, c := range n.children {
		collectObservations(c, level+1, out)
	}
}

// writeElementSubtree writes n (an element) and everything under it,
// returning n's assigned GID. It must be called exactly once, for the
// document root; descendants recurse through writeChildren.
func writeElementSubtree(w *document.Writer, n *xmlNode) (gidtree.GID, error) {
	root, err := w.WriteRoot(n.name, uint8(len(n.attrs)), uint32(len(n.attrs)+len(n.children)))
	if err != nil {
		return 0, err
	}
	if err := writeAttrs(w, root, n.attrs); err != nil {
		return 0, err
	}
	if err := writeChildren(w, root, n.children); err != nil {
		return 0, err
	}
	return root, nil
}

func writeAttrs(w *document.Writer, parent gidtree.GID, attrs []xmlAttrNode) error {
	for _, a := range attrs {
		if _, err := w.WriteAttributeChild(parent, a.name, domnode.CDATA, a.value); err != nil {
			return err
		}
	}
	return nil
}

func writeChildren(w *document.Writer, parent gidtree.GID, children []*xmlNode) error {
	for _, c := range children {
		switch c.kind {
		case domnode.Element:
			gid, err := w.WriteElementChild(parent, c.name, uint8(len(c.attrs)), uint32(len(c.attrs)+len(c.children)))
			if err != nil {
				return err
			}
			if err := writeAttrs(w, gid, c.attrs); err != nil {
				return err
			}
			if err := writeChildren(w, gid, c.children); err != nil {
				return err
			}
		case domnode.Text:
			if _, err := w.WriteTextChild(parent, c.text); err != nil {
				return err
			}
		case domnode.Comment:
			if _, err := w.WriteCommentChild(parent, c.text); err != nil {
				return err
			}
		case domnode.ProcessingInstruction:
			if _, err := w.WritePIChild(parent, c.piTarget, c.piData); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ trigger.Sink = (*treeSink)(nil)
