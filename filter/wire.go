package filter

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MarshalJSON emits the top-level {"$expr": ...} wrapper.
func (qry Query) MarshalJSON() ([]byte, error) {

	if qry.Expr == nil {
		return nil, errors.Errorf("query has no expression")
	}
	return wrap("$expr", qry.Expr)
}

// UnmarshalJSON parses the top-level wrapper and the tree beneath it.
func (qry *Query) UnmarshalJSON(data []byte) (err error) {

	parsed, err := Parse(data)
	if err != nil {
		return
	}
	*qry = *parsed
	return
}

func (lit Literal) MarshalJSON() ([]byte, error) {

	value, err := json.Marshal(lit.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal literal")
	}
	return rawWrap("$literal", value), nil
}

func (fld Field) MarshalJSON() ([]byte, error) {

	path, err := json.Marshal(fld.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal field path")
	}
	return rawWrap("$getField", path), nil
}

func (cnv Convert) MarshalJSON() ([]byte, error) {

	body, err := json.Marshal(struct {
		Input Expression `json:"input"`
		To    string     `json:"to"`
	}{cnv.Input, cnv.To})
	if err != nil {
		return nil, err
	}
	return rawWrap("$convert", body), nil
}

func (cmp Compare) MarshalJSON() ([]byte, error) {
	return wrapList(string(cmp.Op), []Expression{cmp.Left, cmp.Right})
}

func (cnt Contains) MarshalJSON() ([]byte, error) {

	body, err := json.Marshal(struct {
		Input  Expression `json:"input"`
		Substr Literal    `json:"substr"`
	}{cnt.Input, cnt.Substr})
	if err != nil {
		return nil, err
	}
	return rawWrap("$contains", body), nil
}

func (not Not) MarshalJSON() ([]byte, error) {
	return wrapList("$not", []Expression{not.Inner})
}

func (lgc Logical) MarshalJSON() ([]byte, error) {
	return wrapList(string(lgc.Op), lgc.Operands)
}

// unexported

func wrap(key string, expr Expression) ([]byte, error) {

	body, err := json.Marshal(expr)
	if err != nil {
		return nil, err
	}
	return rawWrap(key, body), nil
}

func wrapList(key string, operands []Expression) ([]byte, error) {

	body, err := json.Marshal(operands)
	if err != nil {
		return nil, err
	}
	return rawWrap(key, body), nil
}

func rawWrap(key string, body []byte) []byte {

	out := make([]byte, 0, len(key)+len(body)+4)
	out = append(out, '{', '"')
	out = append(out, key...)
	out = append(out, '"', ':')
	out = append(out, body...)
	out = append(out, '}')
	return out
}
