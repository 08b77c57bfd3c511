package filter

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "$eq"
	OpGt  CompareOp = "$gt"
	OpGte CompareOp = "$gte"
)

// LogicalOp joins two or more boolean expressions.
type LogicalOp string

const (
	OpAnd LogicalOp = "$and"
	OpOr  LogicalOp = "$or"
)

// Expression is a node in the filter tree.
// The concrete types are Literal, Field, Convert, Compare, Contains, Not,
// and Logical; nothing outside this package can add kinds.
type Expression interface {
	json.Marshaler
	expression()
}

// Literal is a numeric or string constant.
type Literal struct {
	Value any
}

// Field references a dotted path into a run's nested structure.
type Field struct {
	Path string
}

// Convert coerces a field's raw value for numeric comparison.
// The only conversion target is "double".
type Convert struct {
	Input Expression
	To    string
}

// Compare is a binary comparison; operand order matters (Left op Right).
type Compare struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

// Contains is a substring predicate over a string field.
type Contains struct {
	Input  Expression
	Substr Literal
}

// Not negates a single boolean expression.
// On the wire the inner expression rides in a one-element list.
type Not struct {
	Inner Expression
}

// Logical is a conjunction or disjunction over two or more boolean
// expressions.
type Logical struct {
	Op       LogicalOp
	Operands []Expression
}

func (Literal) expression()  {}
func (Field) expression()    {}
func (Convert) expression()  {}
func (Compare) expression()  {}
func (Contains) expression() {}
func (Not) expression()      {}
func (Logical) expression()  {}

// Query wraps a boolean expression as the top-level {"$expr": ...} shape.
type Query struct {
	Expr Expression
}

// Constructors. Lt, Lte, and Neq are not primitives; they compose Not with
// Gte, Gt, and Eq respectively, matching the convention the prompt few-shots
// establish.

func Lit(value any) Literal      { return Literal{Value: value} }
func GetField(path string) Field { return Field{Path: path} }

func ToDouble(input Expression) Convert {
	return Convert{Input: input, To: "double"}
}

func Eq(left, right Expression) Compare  { return Compare{Op: OpEq, Left: left, Right: right} }
func Gt(left, right Expression) Compare  { return Compare{Op: OpGt, Left: left, Right: right} }
func Gte(left, right Expression) Compare { return Compare{Op: OpGte, Left: left, Right: right} }

func Lt(left, right Expression) Not  { return Not{Inner: Gte(left, right)} }
func Lte(left, right Expression) Not { return Not{Inner: Gt(left, right)} }
func Neq(left, right Expression) Not { return Not{Inner: Eq(left, right)} }

func And(operands ...Expression) Logical { return Logical{Op: OpAnd, Operands: operands} }
func Or(operands ...Expression) Logical  { return Logical{Op: OpOr, Operands: operands} }

func ContainsStr(input Expression, substr string) Contains {
	return Contains{Input: input, Substr: Lit(substr)}
}

// Equal reports exact structural equality of two queries via their canonical
// wire form. Operand order, operator choice, and Convert wrapping all count.
func Equal(a, b *Query) bool {

	if a == nil || b == nil {
		return a == b
	}

	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)

	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

// Fields returns every $getField path in tree order, deduplicated.
func (qry *Query) Fields() (paths []string) {

	seen := map[string]bool{}
	walk(qry.Expr, func(expr Expression) {
		field, ok := expr.(Field)
		if ok && !seen[field.Path] {
			seen[field.Path] = true
			paths = append(paths, field.Path)
		}
	})
	return
}

// Vocabulary reports whether a field path is queryable.
// *catalog.Catalog satisfies this.
type Vocabulary interface {
	Has(name string) bool
}

// Validate checks that the query is a well-formed boolean expression and
// that every referenced field belongs to the vocabulary.
func (qry *Query) Validate(vocab Vocabulary) (err error) {

	if qry.Expr == nil {
		return errors.Errorf("query has no expression")
	}
	return validateBool(qry.Expr, vocab)
}

// unexported

func walk(expr Expression, fn func(Expression)) {

	if expr == nil {
		return
	}
	fn(expr)

	switch node := expr.(type) {
	case Convert:
		walk(node.Input, fn)
	case Compare:
		walk(node.Left, fn)
		walk(node.Right, fn)
	case Contains:
		walk(node.Input, fn)
		fn(node.Substr)
	case Not:
		walk(node.Inner, fn)
	case Logical:
		for _, operand := range node.Operands {
			walk(operand, fn)
		}
	}
}

func validateBool(expr Expression, vocab Vocabulary) (err error) {

	switch node := expr.(type) {
	case Compare:
		err = validateValue(node.Left, vocab)
		if err != nil {
			return
		}
		return validateValue(node.Right, vocab)
	case Contains:
		_, ok := node.Substr.Value.(string)
		if !ok {
			return errors.Errorf("contains substring must be a string, got %T", node.Substr.Value)
		}
		return validateValue(node.Input, vocab)
	case Not:
		return validateBool(node.Inner, vocab)
	case Logical:
		if len(node.Operands) < 2 {
			return errors.Errorf("%s needs at least 2 operands, got %d", node.Op, len(node.Operands))
		}
		for _, operand := range node.Operands {
			err = validateBool(operand, vocab)
			if err != nil {
				return
			}
		}
		return nil
	default:
		return errors.Errorf("%s cannot stand as a boolean condition", kindOf(expr))
	}
}

func validateValue(expr Expression, vocab Vocabulary) (err error) {

	switch node := expr.(type) {
	case Literal:
		return nil
	case Field:
		if !vocab.Has(node.Path) {
			return errors.Errorf("field %s is not in the catalog", node.Path)
		}
		return nil
	case Convert:
		if node.To != "double" {
			return errors.Errorf("convert target must be double, got %s", node.To)
		}
		return validateValue(node.Input, vocab)
	default:
		return errors.Errorf("%s cannot stand as a comparison operand", kindOf(expr))
	}
}

func kindOf(expr Expression) string {

	switch node := expr.(type) {
	case Literal:
		return "$literal"
	case Field:
		return "$getField"
	case Convert:
		return "$convert"
	case Compare:
		return string(node.Op)
	case Contains:
		return "$contains"
	case Not:
		return "$not"
	case Logical:
		return string(node.Op)
	default:
		return "unknown"
	}
}
