package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestDumpIncludesPgconnFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_product_variants_sku", TableName: "product_variants", Message: "duplicate key"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "sku exists")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "ux_product_variants_sku", d.PGConstraint)
	assert.Equal(t, "product_variants", d.PGTable)
	assert.GreaterOrEqual(t, len(d.Chain), 3)
}

func TestDumpIncludesPqFields(t *testing.T) {
	err := Wrap(CodeDependency, &pq.Error{Code: "40001", Message: "serialization failure"}, "db: decrement stock")

	d := Dump(err)
	assert.Equal(t, "40001", d.PGCode)
	assert.Equal(t, "serialization failure", d.PGMessage)
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
	assert.Empty(t, Dump(stdErrors.New("x")).PGCode)
}
