package sqlsink_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/sqlsink"
)

func TestSink_PublicAPI(t *testing.T) {
	ctx := context.Background()
	sink, err := sqlsink.Open(ctx, "sqlite", ":memory:", sqlsink.WithMaxOpenConns(1))
	require.NoError(t, err)
	defer sink.Close()

	id, err := sqlsink.ParseTableID("orders")
	require.NoError(t, err)

	rec, err := sqlsink.NewRecord().
		Operation(sqlsink.Create).
		Key(sqlsink.Field{Name: "id", Type: sqlsink.TypeInt64, Value: int64(1)}).
		Field(sqlsink.Field{Name: "status", Type: sqlsink.TypeString, Optional: true, Value: "NEW"}).
		Build()
	require.NoError(t, err)

	_, err = sink.Write(ctx, id, rec)
	assert.ErrorIs(t, err, sqlsink.ErrTableNotFound)

	ddl, err := sink.ApplySchemaChanges(ctx, id, rec)
	require.NoError(t, err)
	require.Len(t, ddl, 1)

	rows, err := sink.Write(ctx, id, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func Example() {
	ctx := context.Background()
	sink, err := sqlsink.Open(ctx, "sqlite", ":memory:", sqlsink.WithMaxOpenConns(1))
	if err != nil {
		panic(err)
	}
	defer sink.Close()

	if _, err := sink.DB().ExecContext(ctx, `CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT)`); err != nil {
		panic(err)
	}

	rec, _ := sqlsink.NewRecord().
		Operation(sqlsink.Update).
		Key(sqlsink.Field{Name: "id", Type: sqlsink.TypeInt64, Value: int64(7)}).
		Field(sqlsink.Field{Name: "status", Type: sqlsink.TypeString, Value: "PAID"}).
		Build()

	stmt, err := sink.Statement(ctx, sqlsink.NewTableID("", "", "orders"), rec)
	if err != nil {
		panic(err)
	}
	fmt.Println(stmt.SQL)
	fmt.Println(stmt.Args...)
	// Output:
	// INSERT INTO orders (id,status) VALUES (?,?) ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status
	// 7 PAID
}
