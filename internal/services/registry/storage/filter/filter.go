// Package filter translates AIP-160 filter expressions over registry assets
// and journal events into SQL WHERE fragments.
package filter

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Field describes one filterable identifier.
type Field struct {
	Name   string
	Type   *expr.Type
	Column string
	// Presence, when set, makes the field a bool that tests the column for
	// NULL instead of comparing it.
	Presence bool
}

// Schema is the set of fields one query may filter on.
type Schema struct {
	fields map[string]Field
	decls  *filtering.Declarations
}

// NewSchema declares fields for filtering.
func NewSchema(fields ...Field) (*Schema, error) {
	opts := []filtering.DeclarationOption{
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("true", filtering.TypeBool),
		filtering.DeclareIdent("false", filtering.TypeBool),
	}
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		opts = append(opts, filtering.DeclareIdent(f.Name, f.Type))
		byName[f.Name] = f
	}
	decls, err := filtering.NewDeclarations(opts...)
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	return &Schema{fields: byName, decls: decls}, nil
}

// Assets is the schema of the asset search: id, owner, price, and listed.
func Assets() (*Schema, error) {
	return NewSchema(
		Field{Name: "id", Type: filtering.TypeInt, Column: "g.asset_id"},
		Field{Name: "owner", Type: filtering.TypeString, Column: "o.owner"},
		Field{Name: "price", Type: filtering.TypeInt, Column: "p.price"},
		Field{Name: "listed", Type: filtering.TypeBool, Column: "p.price", Presence: true},
	)
}

// Events is the schema of the journal listing.
func Events() (*Schema, error) {
	return NewSchema(
		Field{Name: "type", Type: filtering.TypeString, Column: "event_type"},
		Field{Name: "caller", Type: filtering.TypeString, Column: "caller"},
		Field{Name: "asset_id", Type: filtering.TypeInt, Column: "asset_id"},
		Field{Name: "block", Type: filtering.TypeInt, Column: "block_number"},
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "o.owner = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c SQLCondition) Empty() bool {
	return c.Clause == ""
}

// Parse parses an AIP-160 filter and returns its SQL condition. An empty
// filter yields an empty condition.
func (s *Schema) Parse(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}
	parsed, err := filtering.ParseFilterString(filterStr, s.decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return s.translateExpr(parsed.CheckedExpr.GetExpr())
}

func (s *Schema) translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return s.translateCall(kind.CallExpr)
	case *expr.Expr_IdentExpr:
		// A bare bool field, e.g. "listed".
		return s.presence(kind.IdentExpr.Name, true)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

var comparisonOps = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func (s *Schema) translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "AND", "OR":
		return s.translateJunction(call.Function, call.Args)
	case "NOT":
		if len(call.Args) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := s.translateExpr(call.Args[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}
	if op, ok := comparisonOps[call.Function]; ok {
		return s.translateComparison(call.Args, op)
	}
	return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
}

func (s *Schema) translateJunction(op string, args []*expr.Expr) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := s.translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func (s *Schema) translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	name, err := identName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	field, ok := s.fields[name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", name)
	}
	value, err := constValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	if field.Presence {
		want, ok := value.(bool)
		if !ok || (op != "=" && op != "!=") {
			return SQLCondition{}, fmt.Errorf("%s supports only = and != with a bool", name)
		}
		if op == "!=" {
			want = !want
		}
		return s.presence(name, want)
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", field.Column, op),
		Params: []any{value},
	}, nil
}

func (s *Schema) presence(name string, present bool) (SQLCondition, error) {
	field, ok := s.fields[name]
	if !ok || !field.Presence {
		return SQLCondition{}, fmt.Errorf("%s is not a bool field", name)
	}
	if present {
		return SQLCondition{Clause: field.Column + " IS NOT NULL"}, nil
	}
	return SQLCondition{Clause: field.Column + " IS NULL"}, nil
}

func identName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	ident, ok := e.ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return "", fmt.Errorf("expected identifier, got %T", e.ExprKind)
	}
	return ident.IdentExpr.Name, nil
}

func constValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	if ident, ok := e.ExprKind.(*expr.Expr_IdentExpr); ok {
		switch ident.IdentExpr.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("expected constant, got identifier %s", ident.IdentExpr.Name)
	}
	c, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch kind := c.ConstExpr.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return int64(kind.Uint64Value), nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
