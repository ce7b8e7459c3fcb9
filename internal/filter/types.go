package filter

import (
	"regexp"

	"github.com/roach88/ldgraph/internal/ld"
)

// Node is a parsed filter. Sealed: only types in this package implement it.
type Node interface {
	filterNode()
}

// Op names a comparison or string operator.
type Op string

// Operator keys.
const (
	OpAnd        Op = "$and"
	OpOr         Op = "$or"
	OpNot        Op = "$not"
	OpEq         Op = "$eq"
	OpNe         Op = "$ne"
	OpLt         Op = "$lt"
	OpLe         Op = "$le"
	OpGt         Op = "$gt"
	OpGe         Op = "$ge"
	OpContains   Op = "$contains"
	OpIncludes   Op = "$includes"
	OpStartsWith Op = "$startsWith"
	OpEndsWith   Op = "$endsWith"
	OpRegex      Op = "$regex"
	OpAny        Op = "$*"
)

// And is true when every sub-node is true (vacuously true when empty).
type And struct {
	Nodes []Node
}

func (And) filterNode() {}

// Or is true when any sub-node is true.
type Or struct {
	Nodes []Node
}

func (Or) filterNode() {}

// Not negates its sub-node.
type Not struct {
	Node Node
}

func (Not) filterNode() {}

// Compare tests the candidate against Operand with $eq, $ne, $lt, $le,
// $gt or $ge.
type Compare struct {
	Op      Op
	Operand ld.Value
}

func (Compare) filterNode() {}

// Contains is true when every value of Operand IsSame some element of the
// candidate (a scalar candidate is a one-element list).
type Contains struct {
	Operand ld.Value
}

func (Contains) filterNode() {}

// Text applies $includes, $startsWith or $endsWith to a scalar candidate.
type Text struct {
	Op      Op
	Operand string
}

func (Text) filterNode() {}

// Regex matches a scalar candidate case-insensitively.
type Regex struct {
	Pattern *regexp.Regexp
}

func (Regex) filterNode() {}

// Any applies Node to the candidate and to each of its property values.
type Any struct {
	Node Node
}

func (Any) filterNode() {}

// Field applies Node to the named property of a record candidate.
type Field struct {
	Name string
	Node Node
}

func (Field) filterNode() {}
