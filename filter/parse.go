package filter

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Parse reads the wire form of a filter query.
// It rejects unknown operators, nodes with more or less than one operator
// key, and wrong arities; it does not check fields against a catalog, that
// is Validate's job.
func Parse(data []byte) (qry *Query, err error) {

	node, err := oneKey(data)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse filter query")
		return
	}

	body, ok := node["$expr"]
	if !ok {
		err = errors.Errorf("filter query must be wrapped in $expr")
		return
	}

	expr, err := parseExpr(body)
	if err != nil {
		return
	}

	qry = &Query{Expr: expr}
	return
}

// unexported

func parseExpr(data json.RawMessage) (expr Expression, err error) {

	node, err := oneKey(data)
	if err != nil {
		return
	}

	for op, body := range node {
		switch op {
		case "$literal":
			return parseLiteral(body)
		case "$getField":
			return parseField(body)
		case "$convert":
			return parseConvert(body)
		case "$eq", "$gt", "$gte":
			return parseCompare(CompareOp(op), body)
		case "$contains":
			return parseContains(body)
		case "$not":
			return parseNot(body)
		case "$and", "$or":
			return parseLogical(LogicalOp(op), body)
		default:
			err = errors.Errorf("unsupported operator %s", op)
			return
		}
	}
	return // unreachable, oneKey guarantees a single entry
}

func oneKey(data json.RawMessage) (node map[string]json.RawMessage, err error) {

	err = json.Unmarshal(data, &node)
	if err != nil {
		err = errors.Wrapf(err, "filter node is not a JSON object")
		return
	}

	if len(node) != 1 {
		err = errors.Errorf("filter node must have exactly one operator, got %d", len(node))
	}
	return
}

func parseLiteral(body json.RawMessage) (expr Expression, err error) {

	var value any
	err = json.Unmarshal(body, &value)
	if err != nil {
		err = errors.Wrapf(err, "bad $literal value")
		return
	}

	switch value.(type) {
	case string, float64, bool, nil:
	default:
		err = errors.Errorf("$literal must be a scalar, got %T", value)
		return
	}

	expr = Literal{Value: value}
	return
}

func parseField(body json.RawMessage) (expr Expression, err error) {

	var path string
	err = json.Unmarshal(body, &path)
	if err != nil {
		err = errors.Wrapf(err, "bad $getField path")
		return
	}
	if path == "" {
		err = errors.Errorf("$getField path is empty")
		return
	}

	expr = Field{Path: path}
	return
}

func parseConvert(body json.RawMessage) (expr Expression, err error) {

	var raw struct {
		Input json.RawMessage `json:"input"`
		To    string          `json:"to"`
	}
	err = json.Unmarshal(body, &raw)
	if err != nil {
		err = errors.Wrapf(err, "bad $convert body")
		return
	}

	if raw.To != "double" {
		err = errors.Errorf("$convert target must be double, got %q", raw.To)
		return
	}
	if len(raw.Input) == 0 {
		err = errors.Errorf("$convert has no input")
		return
	}

	input, err := parseExpr(raw.Input)
	if err != nil {
		return
	}

	expr = Convert{Input: input, To: raw.To}
	return
}

func parseCompare(op CompareOp, body json.RawMessage) (expr Expression, err error) {

	operands, err := parseOperands(string(op), body)
	if err != nil {
		return
	}
	if len(operands) != 2 {
		err = errors.Errorf("%s needs exactly 2 operands, got %d", op, len(operands))
		return
	}

	expr = Compare{Op: op, Left: operands[0], Right: operands[1]}
	return
}

func parseContains(body json.RawMessage) (expr Expression, err error) {

	var raw struct {
		Input  json.RawMessage `json:"input"`
		Substr json.RawMessage `json:"substr"`
	}
	err = json.Unmarshal(body, &raw)
	if err != nil {
		err = errors.Wrapf(err, "bad $contains body")
		return
	}
	if len(raw.Input) == 0 || len(raw.Substr) == 0 {
		err = errors.Errorf("$contains needs input and substr")
		return
	}

	input, err := parseExpr(raw.Input)
	if err != nil {
		return
	}

	substr, err := parseExpr(raw.Substr)
	if err != nil {
		return
	}
	literal, ok := substr.(Literal)
	if !ok {
		err = errors.Errorf("$contains substr must be a $literal")
		return
	}

	expr = Contains{Input: input, Substr: literal}
	return
}

func parseNot(body json.RawMessage) (expr Expression, err error) {

	operands, err := parseOperands("$not", body)
	if err != nil {
		return
	}
	if len(operands) != 1 {
		err = errors.Errorf("$not wraps exactly 1 expression, got %d", len(operands))
		return
	}

	expr = Not{Inner: operands[0]}
	return
}

func parseLogical(op LogicalOp, body json.RawMessage) (expr Expression, err error) {

	operands, err := parseOperands(string(op), body)
	if err != nil {
		return
	}
	if len(operands) < 2 {
		err = errors.Errorf("%s needs at least 2 operands, got %d", op, len(operands))
		return
	}

	expr = Logical{Op: op, Operands: operands}
	return
}

func parseOperands(op string, body json.RawMessage) (operands []Expression, err error) {

	var raws []json.RawMessage
	err = json.Unmarshal(body, &raws)
	if err != nil {
		err = errors.Wrapf(err, "%s operands must be a list", op)
		return
	}

	operands = make([]Expression, len(raws))
	for i, raw := range raws {
		operands[i], err = parseExpr(raw)
		if err != nil {
			return
		}
	}
	return
}
