package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gocstn/pkg/cstn"
)

// netFile mirrors the YAML layout of a network description:
//
//	name: appointment
//	variant: epsilon
//	epsilon: 2
//	z: Z
//	nodes:
//	  - name: Z
//	  - name: "P?"
//	    observes: p
//	  - name: X
//	    label: p
//	edges:
//	  - name: PZ
//	    from: "P?"
//	    to: Z
//	    values:
//	      - {label: p, value: -5}
//
// Labels follow the ParseLabel grammar; ! negates a proposition and ?
// marks it unknown, so labels using them must be quoted in YAML.
type netFile struct {
	Name    string     `yaml:"name"`
	Variant string     `yaml:"variant"`
	Epsilon int        `yaml:"epsilon"`
	Z       string     `yaml:"z"`
	Nodes   []nodeSpec `yaml:"nodes"`
	Edges   []edgeSpec `yaml:"edges"`
}

// nodeSpec describes one time point.
type nodeSpec struct {
	Name       string `yaml:"name"`
	Observes   string `yaml:"observes"`
	Label      string `yaml:"label"`
	Contingent bool   `yaml:"contingent"`
	Parameter  bool   `yaml:"parameter"`
}

// valueSpec is one labeled value.
type valueSpec struct {
	Label string `yaml:"label"`
	Value int    `yaml:"value"`
}

// caseSpec is one case value: a bound that holds while the named
// contingent time point is still pending.
type caseSpec struct {
	Case  string `yaml:"case"`
	Label string `yaml:"label"`
	Value int    `yaml:"value"`
}

// edgeSpec describes one constraint edge. Type defaults to requirement;
// both directions of a contingent link use type contingent. An edge with
// upper entries or a single lower entry loads as simple uncertain, one
// with lowers as general uncertain.
type edgeSpec struct {
	Name   string      `yaml:"name"`
	From   string      `yaml:"from"`
	To     string      `yaml:"to"`
	Type   string      `yaml:"type"`
	Values []valueSpec `yaml:"values"`
	Upper  []caseSpec  `yaml:"upper"`
	Lower  *caseSpec   `yaml:"lower"`
	Lowers []caseSpec  `yaml:"lowers"`
}

// Network is one loaded network description: the assembled graph plus
// the checking variant the file asked for.
type Network struct {
	Graph   *cstn.Graph
	Variant string
	Epsilon int
}

// LoadNetworkFile reads and assembles one YAML network description.
func LoadNetworkFile(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	base := filepath.Base(path)
	fallback := strings.TrimSuffix(base, filepath.Ext(base))
	n, err := parseNetwork(raw, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// parseNetwork assembles a network from raw YAML. fallbackName names the
// graph when the file does not.
func parseNetwork(raw []byte, fallbackName string) (*Network, error) {
	var nf netFile
	if err := yaml.Unmarshal(raw, &nf); err != nil {
		return nil, fmt.Errorf("parsing network file: %w", err)
	}

	name := nf.Name
	if name == "" {
		name = fallbackName
	}
	g := cstn.NewGraph(name)

	for _, spec := range nf.Nodes {
		n, err := buildNode(spec)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, spec := range nf.Edges {
		if err := buildEdge(g, spec); err != nil {
			return nil, err
		}
	}
	if nf.Z != "" {
		if err := g.SetZ(nf.Z); err != nil {
			return nil, err
		}
	}
	return &Network{Graph: g, Variant: nf.Variant, Epsilon: nf.Epsilon}, nil
}

// buildNode assembles one time point from its spec.
func buildNode(spec nodeSpec) (*cstn.Node, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("node with no name")
	}

	var n *cstn.Node
	if spec.Observes != "" {
		props := []rune(spec.Observes)
		if len(props) != 1 {
			return nil, fmt.Errorf("node %s: observes wants a single proposition, got %q", spec.Name, spec.Observes)
		}
		n = cstn.NewObserver(spec.Name, props[0])
	} else {
		n = cstn.NewNode(spec.Name)
	}

	if spec.Label != "" {
		l, err := cstn.ParseLabel(spec.Label)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", spec.Name, err)
		}
		n.SetLabel(l)
	}
	n.SetContingent(spec.Contingent)
	n.SetParameter(spec.Parameter)
	return n, nil
}

// buildEdge assembles one constraint edge and attaches it to the graph.
// Contingent-typed edges load as simple uncertain even without explicit
// case entries: the checker synthesizes their case values from the link
// bounds when the check starts.
func buildEdge(g *cstn.Graph, spec edgeSpec) error {
	if spec.From == "" || spec.To == "" {
		return fmt.Errorf("edge %q: missing from or to", spec.Name)
	}
	name := spec.Name
	if name == "" {
		name = spec.From + "-" + spec.To
	}
	ctype, err := parseConstraintType(spec.Type)
	if err != nil {
		return fmt.Errorf("edge %s: %w", name, err)
	}
	if spec.Lower != nil && len(spec.Lowers) > 0 {
		return fmt.Errorf("edge %s: lower and lowers are mutually exclusive", name)
	}

	var e *cstn.Edge
	switch {
	case len(spec.Lowers) > 0:
		e = cstn.NewGeneralUncertainEdge(name, ctype)
	case spec.Lower != nil || len(spec.Upper) > 0 || ctype == cstn.Contingent:
		e = cstn.NewSimpleUncertainEdge(name, ctype)
	default:
		e = cstn.NewEdge(name, ctype)
	}

	for _, v := range spec.Values {
		l, err := cstn.ParseLabel(v.Label)
		if err != nil {
			return fmt.Errorf("edge %s: %w", name, err)
		}
		e.Merge(l, v.Value)
	}
	for _, u := range spec.Upper {
		c, l, err := parseCase(g, u)
		if err != nil {
			return fmt.Errorf("edge %s: %w", name, err)
		}
		e.MergeUpperCase(c, l, u.Value)
	}
	if spec.Lower != nil {
		c, l, err := parseCase(g, *spec.Lower)
		if err != nil {
			return fmt.Errorf("edge %s: %w", name, err)
		}
		e.SetLowerCase(c, l, spec.Lower.Value)
	}
	for _, lo := range spec.Lowers {
		c, l, err := parseCase(g, lo)
		if err != nil {
			return fmt.Errorf("edge %s: %w", name, err)
		}
		e.MergeLowerCase(c, l, lo.Value)
	}

	return g.AddEdge(e, spec.From, spec.To)
}

// parseCase resolves a case spec against the graph's alphabet.
func parseCase(g *cstn.Graph, spec caseSpec) (cstn.ALabel, cstn.Label, error) {
	c, err := g.Alphabet().ALabelOf(spec.Case)
	if err != nil {
		return cstn.EmptyALabel, cstn.EmptyLabel, err
	}
	l, err := cstn.ParseLabel(spec.Label)
	if err != nil {
		return cstn.EmptyALabel, cstn.EmptyLabel, err
	}
	return c, l, nil
}

// parseConstraintType maps the YAML type field onto a constraint type.
// Derived and internal edges are checker-owned and never load from files.
func parseConstraintType(s string) (cstn.ConstraintType, error) {
	switch strings.ToLower(s) {
	case "", "requirement":
		return cstn.Requirement, nil
	case "contingent":
		return cstn.Contingent, nil
	default:
		return cstn.Requirement, fmt.Errorf("unknown edge type %q (want requirement or contingent)", s)
	}
}

// Policy resolves the checking policy for this network. A non-empty
// variant or positive epsilon overrides what the file said; epsilon
// falls back to 1 when neither the caller nor the file supplies one. A
// negative epsilon in the file is passed through so the policy
// constructor can reject it.
func (n *Network) Policy(variant string, epsilon int) (cstn.Policy, error) {
	if variant == "" {
		variant = n.Variant
	}
	if epsilon <= 0 {
		epsilon = n.Epsilon
	}
	if epsilon == 0 {
		epsilon = 1
	}

	switch strings.ToLower(variant) {
	case "", "ir":
		return cstn.IRPolicy{}, nil
	case "epsilon":
		p, err := cstn.NewEpsilonPolicy(epsilon)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "epsilon3":
		p, err := cstn.NewEpsilon3RulePolicy(epsilon)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "parameterized":
		return cstn.ParameterizedPolicy{}, nil
	case "stnu":
		return cstn.STNUPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown variant %q (want ir, epsilon, epsilon3, parameterized, or stnu)", variant)
	}
}
