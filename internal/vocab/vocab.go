package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default.cue
var defaultCUE []byte

// ID derivation kinds.
const (
	KindURL   = "url"
	KindEmail = "email"
	KindValue = "value"
)

// Inverse declares that children found under Property of a parent get
// Inverse pointing back at the parent.
type Inverse struct {
	Property string `json:"property"`
	Inverse  string `json:"inverse"`
	Parent   string `json:"parent"`
}

// IDRule derives a canonical id for Type from the value of Property.
type IDRule struct {
	Type     string `json:"type"`
	Property string `json:"property"`
	Kind     string `json:"kind"`
}

// Vocabulary holds the vocabulary-specific normalization rules.
// A nil *Vocabulary is valid and applies no rules.
type Vocabulary struct {
	Inline   []string  `json:"inline"`
	Inverses []Inverse `json:"inverses"`
	IDs      []IDRule  `json:"ids"`
}

// LoadError reports a vocabulary file that failed to compile, validate or
// decode.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	var ce cueerrors.Error
	if errors.As(e.Err, &ce) {
		return fmt.Sprintf("vocabulary %s: %s", e.Source, strings.TrimSpace(cueerrors.Details(e.Err, nil)))
	}
	return fmt.Sprintf("vocabulary %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v, err := Parse("default.cue", defaultCUE)
	if err != nil {
		panic(err)
	}
	return v
}

// Load reads and validates a CUE vocabulary file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return Parse(path, data)
}

// Parse compiles src, unifies it with the #Vocabulary schema and decodes
// the concrete result. Omitted sections default to empty.
func Parse(name string, src []byte) (*Vocabulary, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Source: "schema.cue", Err: err}
	}

	data := ctx.CompileBytes(src, cue.Filename(name))
	if err := data.Err(); err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	unified := schema.LookupPath(cue.ParsePath("#Vocabulary")).Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}

	var v Vocabulary
	if err := unified.Decode(&v); err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return &v, nil
}

// IsInline reports whether r has a type kept embedded as a value object.
func (v *Vocabulary) IsInline(r *ld.Record) bool {
	if v == nil {
		return false
	}
	for _, t := range r.Types() {
		if slices.Contains(v.Inline, t) {
			return true
		}
	}
	return false
}

// InverseOf returns the back-reference property children under prop of
// parent should carry.
func (v *Vocabulary) InverseOf(parent *ld.Record, prop string) (string, bool) {
	if v == nil {
		return "", false
	}
	types := parent.Types()
	for _, inv := range v.Inverses {
		if inv.Property != prop {
			continue
		}
		if inv.Parent != "" && !slices.Contains(types, inv.Parent) {
			continue
		}
		return inv.Inverse, true
	}
	return "", false
}

// DeriveID computes the canonical id of r from its content using the
// first matching rule.
func (v *Vocabulary) DeriveID(r *ld.Record) (string, bool) {
	if v == nil {
		return "", false
	}
	types := r.Types()
	for _, rule := range v.IDs {
		if !slices.Contains(types, rule.Type) {
			continue
		}
		for _, val := range ld.Values(r.Get(rule.Property)) {
			s, ok := ld.ScalarString(val)
			if !ok {
				continue
			}
			if id, ok := derive(rule.Kind, s); ok {
				return id, true
			}
		}
	}
	return "", false
}

func derive(kind, s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch kind {
	case KindURL:
		return ident.CleanURL(s)
	case KindEmail:
		s = strings.TrimPrefix(strings.ToLower(s), "mailto:")
		at := strings.IndexByte(s, '@')
		if at <= 0 || at == len(s)-1 {
			return "", false
		}
		return "mailto:" + s, true
	case KindValue:
		return s, s != ""
	default:
		return "", false
	}
}
