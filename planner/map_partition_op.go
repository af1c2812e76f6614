package planner

import (
	"fmt"
	"strings"

	"mit.edu/dsg/godf/common"
	"mit.edu/dsg/godf/storage"
)

// MapPartitionOp is a transformation applied to every partition independently. Implementations
// must derive their output schema at construction and keep no mutable state, so Run can be
// called concurrently on distinct partitions.
type MapPartitionOp interface {
	// InputSchema is the schema the op was built for; the child of the node must produce it.
	InputSchema() *common.Schema
	OutputSchema() *common.Schema
	Run(p *storage.Partition) (*storage.Partition, error)
	String() string
}

// ExplodeOp turns every element of one or more list columns into its own row. Exploded columns
// keep their position and take the element type; other columns are repeated for each element.
// All exploded lists of a row must have the same length. A row whose lists are all NULL or empty
// produces a single row with NULL in the exploded columns.
type ExplodeOp struct {
	inputSchema  *common.Schema
	outputSchema *common.Schema
	offsets      []int
}

// NewExplodeOp accepts column references, optionally wrapped in Explode.
func NewExplodeOp(inputSchema *common.Schema, exprs []Expr) (*ExplodeOp, error) {
	if len(exprs) == 0 {
		return nil, common.Errorf(common.ConfigurationError, "explode needs at least one column")
	}
	fields := inputSchema.Fields()
	offsets := make([]int, 0, len(exprs))
	for _, e := range exprs {
		if ex, ok := e.(*ExplodeExpr); ok {
			e = ex.child
		}
		col, ok := e.(*ColumnExpr)
		if !ok {
			return nil, common.Errorf(common.SchemaError, "explode takes column references, got %s", e)
		}
		idx, ok := inputSchema.IndexOf(col.name)
		if !ok {
			return nil, common.Errorf(common.SchemaError, "cannot explode column '%s': not in %s", col.name, inputSchema)
		}
		if !fields[idx].Type.IsList() {
			if containsInt(offsets, idx) {
				continue
			}
			return nil, common.Errorf(common.SchemaError, "cannot explode column '%s' of type %s", col.name, fields[idx].Type)
		}
		fields[idx].Type = fields[idx].Type.Elem()
		offsets = append(offsets, idx)
	}
	outputSchema, err := common.NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	return &ExplodeOp{inputSchema: inputSchema, outputSchema: outputSchema, offsets: offsets}, nil
}

func (op *ExplodeOp) InputSchema() *common.Schema {
	return op.inputSchema
}

func (op *ExplodeOp) OutputSchema() *common.Schema {
	return op.outputSchema
}

func (op *ExplodeOp) Run(p *storage.Partition) (*storage.Partition, error) {
	var out []storage.Tuple
	for _, t := range p.Tuples() {
		n := 0
		for _, idx := range op.offsets {
			v := t.GetValue(idx)
			if v.IsNull() {
				continue
			}
			l := len(v.ListValue())
			if l == 0 {
				continue
			}
			if n != 0 && l != n {
				return nil, common.Errorf(common.ExecutionError, "cannot explode lists of different lengths (%d and %d) in row %s",
					n, l, t)
			}
			n = l
		}

		rows := n
		if rows == 0 {
			rows = 1
		}
		for i := 0; i < rows; i++ {
			values := make([]common.Value, t.NumColumns())
			copy(values, t.Values())
			for _, idx := range op.offsets {
				v := values[idx]
				elem := op.outputSchema.Field(idx).Type
				if v.IsNull() || len(v.ListValue()) == 0 {
					values[idx] = common.NewNullValue(elem)
				} else {
					values[idx] = v.ListValue()[i]
				}
			}
			out = append(out, storage.FromValues(values...))
		}
	}
	return storage.NewPartition(op.outputSchema, out), nil
}

func (op *ExplodeOp) String() string {
	names := make([]string, len(op.offsets))
	for i, idx := range op.offsets {
		names[i] = op.inputSchema.Field(idx).Name
	}
	return fmt.Sprintf("Explode(%s)", strings.Join(names, ", "))
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
