package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/storage"
)

func intList(xs ...int64) common.Value {
	vals := make([]common.Value, len(xs))
	for i, x := range xs {
		vals[i] = common.NewIntValue(x)
	}
	return common.NewListValue(common.IntType, vals)
}

func explodeSchema() *common.Schema {
	return common.MustSchema(
		common.Field{Name: "id", Type: common.StringType},
		common.Field{Name: "a", Type: common.ListOf(common.IntType)},
		common.Field{Name: "b", Type: common.ListOf(common.IntType)},
	)
}

func TestExplodeSchema(t *testing.T) {
	op, err := NewExplodeOp(explodeSchema(), []Expr{Explode(Col("a"))})
	require.NoError(t, err)
	assert.Equal(t, []common.Field{
		{Name: "id", Type: common.StringType},
		{Name: "a", Type: common.IntType},
		{Name: "b", Type: common.ListOf(common.IntType)},
	}, op.OutputSchema().Fields())
	assert.Equal(t, "Explode(a)", op.String())

	tests := []struct {
		name  string
		exprs []Expr
		code  common.GoDFErrorCode
	}{
		{"missing column", []Expr{Col("zzz")}, common.SchemaError},
		{"not a list", []Expr{Col("id")}, common.SchemaError},
		{"not a column", []Expr{Lit(1)}, common.SchemaError},
		{"nothing to explode", nil, common.ConfigurationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExplodeOp(explodeSchema(), tt.exprs)
			assert.True(t, common.IsErrorCode(err, tt.code), "%v", err)
		})
	}
}

func TestExplodeRun(t *testing.T) {
	schema := explodeSchema()
	op, err := NewExplodeOp(schema, Cols("a", "b"))
	require.NoError(t, err)

	in := storage.NewPartition(schema, []storage.Tuple{
		storage.FromValues(common.NewStringValue("r1"), intList(1, 2), intList(10, 20)),
		storage.FromValues(common.NewStringValue("r2"), common.NewNullValue(common.ListOf(common.IntType)), intList()),
		storage.FromValues(common.NewStringValue("r3"), intList(3), common.NewNullValue(common.ListOf(common.IntType))),
	})
	out, err := op.Run(in)
	require.NoError(t, err)
	assert.True(t, op.OutputSchema().Equal(out.Schema()))

	got := make([][]any, out.NumRows())
	for i, tup := range out.Tuples() {
		row := make([]any, tup.NumColumns())
		for j, v := range tup.Values() {
			row[j] = v.Interface()
		}
		got[i] = row
	}
	assert.Equal(t, [][]any{
		{"r1", int64(1), int64(10)},
		{"r1", int64(2), int64(20)},
		{"r2", nil, nil},
		{"r3", int64(3), nil},
	}, got)

	// the input partition is untouched
	assert.Equal(t, 3, in.NumRows())
	assert.True(t, in.Tuple(0).GetValue(1).Type().IsList())
}

func TestExplodeLengthMismatch(t *testing.T) {
	schema := explodeSchema()
	op, err := NewExplodeOp(schema, Cols("a", "b"))
	require.NoError(t, err)

	in := storage.NewPartition(schema, []storage.Tuple{
		storage.FromValues(common.NewStringValue("r1"), intList(1, 2), intList(10)),
	})
	_, err = op.Run(in)
	assert.True(t, common.IsErrorCode(err, common.ExecutionError), "%v", err)
}

func TestMapPartitionNodePartitioning(t *testing.T) {
	scan := makeScan(t, 3, explodeSchema().Fields()...)
	byID, err := Repartition(scan, 4, Cols("id"), PartitionHash)
	require.NoError(t, err)
	byA, err := NewRepartitionNode(scan, 4, NewExprProjection(Col("id"), Col("a")), PartitionHash)
	require.NoError(t, err)

	op, err := NewExplodeOp(scan.OutputSchema(), Cols("a"))
	require.NoError(t, err)

	kept, err := MapPartition(byID, op)
	require.NoError(t, err)
	assert.Equal(t, byID.Partitioning(), kept.Partitioning())

	lost, err := MapPartition(byA, op)
	require.NoError(t, err)
	assert.Equal(t, RandomPartitioning(4), lost.Partitioning())
	assert.Equal(t, []string{"id", "a", "b"}, lost.OutputSchema().ColumnNames())
}

func TestMapPartitionRejectsForeignSchema(t *testing.T) {
	built := common.MustSchema(
		common.Field{Name: "a", Type: common.ListOf(common.IntType)},
		common.Field{Name: "b", Type: common.IntType},
	)
	op, err := NewExplodeOp(built, Cols("a"))
	require.NoError(t, err)
	assert.Same(t, built, op.InputSchema())

	other := makeScan(t, 2, common.Field{Name: "z", Type: common.StringType})
	n, err := MapPartition(other, op)
	assert.Nil(t, n)
	assert.True(t, common.IsErrorCode(err, common.SchemaError), "%v", err)

	same := makeScan(t, 2, built.Fields()...)
	_, err = MapPartition(same, op)
	assert.NoError(t, err)
}
