package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/storage"
)

// Expr represents a node in an expression tree.
// Expressions are stateless and immutable: Resolve returns a new, bound expression instead of
// modifying the receiver, so one expression can be resolved against many schemas.
type Expr interface {
	// Name returns the column name this expression produces, if it has one.
	Name() (string, bool)

	// ResolvedType returns the type of value this expression produces, once resolved.
	ResolvedType() (common.Type, bool)

	// Resolve binds column references against the input schema and type-checks the tree.
	Resolve(schema *common.Schema) (Expr, error)

	// Eval evaluates a resolved expression against a tuple of the schema it was resolved with.
	Eval(t storage.Tuple) common.Value

	// String returns a string representation of the expression.
	String() string
}

// ColumnExpr references an input column by name. Once resolved it reads the column's offset.
type ColumnExpr struct {
	name        string
	fieldOffset int
	outputType  common.Type
}

// Col references the named column.
func Col(name string) *ColumnExpr {
	return &ColumnExpr{name: name, fieldOffset: -1}
}

// Cols references each named column in order.
func Cols(names ...string) []Expr {
	out := make([]Expr, len(names))
	for i, n := range names {
		out[i] = Col(n)
	}
	return out
}

func (e *ColumnExpr) Name() (string, bool) {
	return e.name, true
}

func (e *ColumnExpr) ResolvedType() (common.Type, bool) {
	return e.outputType, e.fieldOffset >= 0
}

func (e *ColumnExpr) Resolve(schema *common.Schema) (Expr, error) {
	idx, ok := schema.IndexOf(e.name)
	if !ok {
		return nil, common.Errorf(common.SchemaError, "column '%s' does not exist in %s", e.name, schema)
	}
	return &ColumnExpr{name: e.name, fieldOffset: idx, outputType: schema.Field(idx).Type}, nil
}

func (e *ColumnExpr) Eval(t storage.Tuple) common.Value {
	common.Assert(e.fieldOffset >= 0, "evaluating unresolved column '%s'", e.name)
	return t.GetValue(e.fieldOffset)
}

func (e *ColumnExpr) String() string {
	return fmt.Sprintf("col(%s)", e.name)
}

// ConstantValueExpr is a literal. Literals have no name until aliased.
type ConstantValueExpr struct {
	val common.Value
}

func NewConstantValueExpression(val common.Value) *ConstantValueExpr {
	common.Assert(!val.IsNil(), "constant must be initialized")
	return &ConstantValueExpr{val: val}
}

// Lit builds a literal from a plain Go value: int, int64, float64, string or bool.
func Lit(x any) *ConstantValueExpr {
	switch v := x.(type) {
	case int:
		return NewConstantValueExpression(common.NewIntValue(int64(v)))
	case int64:
		return NewConstantValueExpression(common.NewIntValue(v))
	case float64:
		return NewConstantValueExpression(common.NewFloatValue(v))
	case string:
		return NewConstantValueExpression(common.NewStringValue(v))
	case bool:
		return NewConstantValueExpression(common.NewBoolValue(v))
	}
	panic(fmt.Sprintf("unsupported literal type %T", x))
}

func (e *ConstantValueExpr) Name() (string, bool) {
	return "", false
}

func (e *ConstantValueExpr) ResolvedType() (common.Type, bool) {
	return e.val.Type(), true
}

func (e *ConstantValueExpr) Resolve(*common.Schema) (Expr, error) {
	return e, nil
}

func (e *ConstantValueExpr) Eval(storage.Tuple) common.Value {
	return e.val
}

func (e *ConstantValueExpr) String() string {
	if e.val.Type() == common.FloatType && !e.val.IsNull() {
		s := strconv.FormatFloat(e.val.FloatValue(), 'f', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return "lit(" + s + ")"
	}
	return fmt.Sprintf("lit(%s)", e.val.String())
}

// AliasExpr renames the output of its child.
type AliasExpr struct {
	child Expr
	name  string
}

// Alias renames e.
func Alias(e Expr, name string) *AliasExpr {
	return &AliasExpr{child: e, name: name}
}

func (e *AliasExpr) Name() (string, bool) {
	return e.name, e.name != ""
}

func (e *AliasExpr) ResolvedType() (common.Type, bool) {
	return e.child.ResolvedType()
}

func (e *AliasExpr) Resolve(schema *common.Schema) (Expr, error) {
	child, err := e.child.Resolve(schema)
	if err != nil {
		return nil, err
	}
	return &AliasExpr{child: child, name: e.name}, nil
}

func (e *AliasExpr) Eval(t storage.Tuple) common.Value {
	return e.child.Eval(t)
}

func (e *AliasExpr) String() string {
	return fmt.Sprintf("%s AS %s", e.child.String(), e.name)
}

// Child returns the aliased expression.
func (e *AliasExpr) Child() Expr {
	return e.child
}

type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
)

func (c ComparisonType) String() string {
	switch c {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case GreaterThanOrEqual:
		return ">="
	case LessThanOrEqual:
		return "<="
	}
	return "???"
}

type ComparisonExpression struct {
	left     Expr
	right    Expr
	compType ComparisonType
}

func NewComparisonExpression(left Expr, right Expr, compType ComparisonType) *ComparisonExpression {
	return &ComparisonExpression{
		left:     left,
		right:    right,
		compType: compType,
	}
}

func Eq(left, right Expr) *ComparisonExpression { return NewComparisonExpression(left, right, Equal) }
func Ne(left, right Expr) *ComparisonExpression { return NewComparisonExpression(left, right, NotEqual) }
func Gt(left, right Expr) *ComparisonExpression { return NewComparisonExpression(left, right, GreaterThan) }
func Lt(left, right Expr) *ComparisonExpression { return NewComparisonExpression(left, right, LessThan) }
func Ge(left, right Expr) *ComparisonExpression {
	return NewComparisonExpression(left, right, GreaterThanOrEqual)
}
func Le(left, right Expr) *ComparisonExpression {
	return NewComparisonExpression(left, right, LessThanOrEqual)
}

func (e *ComparisonExpression) Name() (string, bool) {
	return e.left.Name()
}

func (e *ComparisonExpression) ResolvedType() (common.Type, bool) {
	_, lok := e.left.ResolvedType()
	_, rok := e.right.ResolvedType()
	return common.BoolType, lok && rok
}

func (e *ComparisonExpression) Resolve(schema *common.Schema) (Expr, error) {
	left, right, err := resolvePair(e.left, e.right, schema)
	if err != nil {
		return nil, err
	}
	lt, _ := left.ResolvedType()
	rt, _ := right.ResolvedType()
	if lt != rt && !(lt.IsNumeric() && rt.IsNumeric()) {
		return nil, common.Errorf(common.SchemaError, "cannot compare %s and %s in %s", lt, rt, e)
	}
	return &ComparisonExpression{left: left, right: right, compType: e.compType}, nil
}

func (e *ComparisonExpression) Eval(t storage.Tuple) common.Value {
	val1 := e.left.Eval(t)
	val2 := e.right.Eval(t)

	if val1.IsNull() || val2.IsNull() {
		return common.NewNullValue(common.BoolType)
	}

	cmp := val1.Compare(val2)
	var result bool

	switch e.compType {
	case Equal:
		result = cmp == 0
	case NotEqual:
		result = cmp != 0
	case GreaterThan:
		result = cmp > 0
	case LessThan:
		result = cmp < 0
	case GreaterThanOrEqual:
		result = cmp >= 0
	case LessThanOrEqual:
		result = cmp <= 0
	}
	return common.NewBoolValue(result)
}

func (e *ComparisonExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left.String(), e.compType.String(), e.right.String())
}

func ExprIsTrue(v common.Value) bool {
	return v.Type() == common.BoolType && !v.IsNull() && v.BoolValue()
}

func ExprIsFalse(v common.Value) bool {
	return v.Type() == common.BoolType && !v.IsNull() && !v.BoolValue()
}

type BinaryLogicType int

const (
	And BinaryLogicType = iota
	Or
)

func (l BinaryLogicType) String() string {
	switch l {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return "???"
}

type BinaryLogicExpression struct {
	left      Expr
	right     Expr
	logicType BinaryLogicType
}

func NewBinaryLogicExpression(left Expr, right Expr, logicType BinaryLogicType) *BinaryLogicExpression {
	return &BinaryLogicExpression{
		left:      left,
		right:     right,
		logicType: logicType,
	}
}

func (e *BinaryLogicExpression) Name() (string, bool) {
	return e.left.Name()
}

func (e *BinaryLogicExpression) ResolvedType() (common.Type, bool) {
	_, lok := e.left.ResolvedType()
	_, rok := e.right.ResolvedType()
	return common.BoolType, lok && rok
}

func (e *BinaryLogicExpression) Resolve(schema *common.Schema) (Expr, error) {
	left, right, err := resolvePair(e.left, e.right, schema)
	if err != nil {
		return nil, err
	}
	if err := requireType(left, common.BoolType, e); err != nil {
		return nil, err
	}
	if err := requireType(right, common.BoolType, e); err != nil {
		return nil, err
	}
	return &BinaryLogicExpression{left: left, right: right, logicType: e.logicType}, nil
}

func (e *BinaryLogicExpression) Eval(t storage.Tuple) common.Value {
	val1 := e.left.Eval(t)
	val2 := e.right.Eval(t)

	switch e.logicType {
	case And:
		if ExprIsTrue(val1) && ExprIsTrue(val2) {
			return common.NewBoolValue(true)
		} else if ExprIsFalse(val1) || ExprIsFalse(val2) {
			return common.NewBoolValue(false)
		}
		return common.NewNullValue(common.BoolType)
	case Or:
		if ExprIsTrue(val1) || ExprIsTrue(val2) {
			return common.NewBoolValue(true)
		} else if ExprIsFalse(val1) && ExprIsFalse(val2) {
			return common.NewBoolValue(false)
		}
		return common.NewNullValue(common.BoolType)
	default:
		panic("unknown logic type")
	}
}

func (e *BinaryLogicExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left.String(), e.logicType.String(), e.right.String())
}

type NegationExpression struct {
	child Expr
}

func NewNegationExpression(child Expr) *NegationExpression {
	return &NegationExpression{
		child: child,
	}
}

func (e *NegationExpression) Name() (string, bool) {
	return e.child.Name()
}

func (e *NegationExpression) ResolvedType() (common.Type, bool) {
	_, ok := e.child.ResolvedType()
	return common.BoolType, ok
}

func (e *NegationExpression) Resolve(schema *common.Schema) (Expr, error) {
	child, err := e.child.Resolve(schema)
	if err != nil {
		return nil, err
	}
	if err := requireType(child, common.BoolType, e); err != nil {
		return nil, err
	}
	return &NegationExpression{child: child}, nil
}

func (e *NegationExpression) Eval(t storage.Tuple) common.Value {
	val := e.child.Eval(t)
	if val.IsNull() {
		return common.NewNullValue(common.BoolType)
	}
	return common.NewBoolValue(!val.BoolValue())
}

func (e *NegationExpression) String() string {
	return fmt.Sprintf("!(%s)", e.child.String())
}

type NullCheckType int

const (
	IsNull NullCheckType = iota
	IsNotNull
)

func (n NullCheckType) String() string {
	switch n {
	case IsNull:
		return "IS NULL"
	case IsNotNull:
		return "IS NOT NULL"
	}
	return "???"
}

type NullCheckExpression struct {
	child     Expr
	checkType NullCheckType
}

func NewNullCheckExpression(child Expr, checkType NullCheckType) *NullCheckExpression {
	return &NullCheckExpression{
		child:     child,
		checkType: checkType,
	}
}

func (e *NullCheckExpression) Name() (string, bool) {
	return e.child.Name()
}

func (e *NullCheckExpression) ResolvedType() (common.Type, bool) {
	_, ok := e.child.ResolvedType()
	return common.BoolType, ok
}

func (e *NullCheckExpression) Resolve(schema *common.Schema) (Expr, error) {
	child, err := e.child.Resolve(schema)
	if err != nil {
		return nil, err
	}
	return &NullCheckExpression{child: child, checkType: e.checkType}, nil
}

func (e *NullCheckExpression) Eval(t storage.Tuple) common.Value {
	isNull := e.child.Eval(t).IsNull()
	if e.checkType == IsNull {
		return common.NewBoolValue(isNull)
	}
	return common.NewBoolValue(!isNull)
}

func (e *NullCheckExpression) String() string {
	return fmt.Sprintf("(%s %s)", e.child.String(), e.checkType.String())
}

type ArithmeticType int

const (
	Add ArithmeticType = iota
	Sub
	Mult
	Div
	Mod
)

func (a ArithmeticType) String() string {
	switch a {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mult:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	}
	return "?"
}

// ArithmeticExpression combines two numeric operands. Two ints produce an int (division
// truncates); any float operand promotes the result to float.
type ArithmeticExpression struct {
	left       Expr
	right      Expr
	op         ArithmeticType
	outputType common.Type
}

func NewArithmeticExpression(left Expr, right Expr, op ArithmeticType) *ArithmeticExpression {
	return &ArithmeticExpression{
		left:  left,
		right: right,
		op:    op,
	}
}

func Plus(left, right Expr) *ArithmeticExpression  { return NewArithmeticExpression(left, right, Add) }
func Minus(left, right Expr) *ArithmeticExpression { return NewArithmeticExpression(left, right, Sub) }
func Times(left, right Expr) *ArithmeticExpression { return NewArithmeticExpression(left, right, Mult) }
func Divide(left, right Expr) *ArithmeticExpression {
	return NewArithmeticExpression(left, right, Div)
}

func (e *ArithmeticExpression) Name() (string, bool) {
	return e.left.Name()
}

func (e *ArithmeticExpression) ResolvedType() (common.Type, bool) {
	return e.outputType, e.outputType != common.DefaultType
}

func (e *ArithmeticExpression) Resolve(schema *common.Schema) (Expr, error) {
	left, right, err := resolvePair(e.left, e.right, schema)
	if err != nil {
		return nil, err
	}
	lt, _ := left.ResolvedType()
	rt, _ := right.ResolvedType()
	if !lt.IsNumeric() || !rt.IsNumeric() {
		return nil, common.Errorf(common.SchemaError, "cannot apply %s to %s and %s in %s", e.op, lt, rt, e)
	}
	outputType := common.IntType
	if lt == common.FloatType || rt == common.FloatType {
		outputType = common.FloatType
	}
	return &ArithmeticExpression{left: left, right: right, op: e.op, outputType: outputType}, nil
}

func (e *ArithmeticExpression) Eval(t storage.Tuple) common.Value {
	val1 := e.left.Eval(t)
	val2 := e.right.Eval(t)

	if val1.IsNull() || val2.IsNull() {
		return common.NewNullValue(e.outputType)
	}

	if e.outputType == common.FloatType {
		v1, v2 := val1.AsFloat(), val2.AsFloat()
		var result float64
		switch e.op {
		case Add:
			result = v1 + v2
		case Sub:
			result = v1 - v2
		case Mult:
			result = v1 * v2
		case Div:
			if v2 == 0 {
				return common.NewNullValue(common.FloatType)
			}
			result = v1 / v2
		case Mod:
			if v2 == 0 {
				return common.NewNullValue(common.FloatType)
			}
			result = math.Mod(v1, v2)
		}
		return common.NewFloatValue(result)
	}

	v1 := val1.IntValue()
	v2 := val2.IntValue()
	var result int64

	switch e.op {
	case Add:
		result = v1 + v2
	case Sub:
		result = v1 - v2
	case Mult:
		result = v1 * v2
	case Div:
		if v2 == 0 {
			return common.NewNullValue(common.IntType)
		}
		result = v1 / v2
	case Mod:
		if v2 == 0 {
			return common.NewNullValue(common.IntType)
		}
		result = v1 % v2
	}
	return common.NewIntValue(result)
}

func (e *ArithmeticExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left.String(), e.op.String(), e.right.String())
}

// ExplodeExpr marks a list column to be exploded by an ExplodeOp. Its resolved type is the
// list's element type; Eval returns the whole list.
type ExplodeExpr struct {
	child      Expr
	outputType common.Type
}

// Explode marks e for explosion.
func Explode(e Expr) *ExplodeExpr {
	return &ExplodeExpr{child: e}
}

func (e *ExplodeExpr) Name() (string, bool) {
	return e.child.Name()
}

func (e *ExplodeExpr) ResolvedType() (common.Type, bool) {
	return e.outputType, e.outputType != common.DefaultType
}

func (e *ExplodeExpr) Resolve(schema *common.Schema) (Expr, error) {
	child, err := e.child.Resolve(schema)
	if err != nil {
		return nil, err
	}
	t, _ := child.ResolvedType()
	if !t.IsList() {
		return nil, common.Errorf(common.SchemaError, "cannot explode %s of type %s", child, t)
	}
	return &ExplodeExpr{child: child, outputType: t.Elem()}, nil
}

func (e *ExplodeExpr) Eval(t storage.Tuple) common.Value {
	return e.child.Eval(t)
}

func (e *ExplodeExpr) String() string {
	return fmt.Sprintf("explode(%s)", e.child.String())
}

func resolvePair(left, right Expr, schema *common.Schema) (Expr, Expr, error) {
	l, err := left.Resolve(schema)
	if err != nil {
		return nil, nil, err
	}
	r, err := right.Resolve(schema)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func requireType(e Expr, want common.Type, parent Expr) error {
	if t, _ := e.ResolvedType(); t != want {
		return common.Errorf(common.SchemaError, "expected %s operand in %s, got %s", want, parent, t)
	}
	return nil
}

// ExprName returns the name of e or a SchemaError if it has none.
func ExprName(e Expr) (string, error) {
	name, ok := e.Name()
	if !ok || name == "" {
		return "", common.Errorf(common.SchemaError, "expression %s has no name; alias it", e)
	}
	return name, nil
}
