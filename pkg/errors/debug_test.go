package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCapturesPgxDetailsAndStep(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "ck_variant_sizes_stock", TableName: "variant_sizes", Message: "check violation"}
	err := Wrap(CodeInsufficientStock, fmt.Errorf("decrement: %w", pgErr), "insufficient stock").
		WithDetails(map[string]any{"step": "consume_stock"})

	d := Dump(err)
	if d.Code != CodeInsufficientStock || d.Step != "consume_stock" {
		t.Fatalf("unexpected typed fields %+v", d)
	}
	if d.PGCode != "23514" || d.PGConstraint != "ck_variant_sizes_stock" || d.PGTable != "variant_sizes" {
		t.Fatalf("pgx details not captured: %+v", d)
	}

	fields := d.Fields()
	if fields["step"] != "consume_stock" || fields["pg_code"] != "23514" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty values should be omitted: %+v", fields)
	}
	if _, ok := fields["error_chain"]; !ok {
		t.Fatalf("wrapped errors should log their chain")
	}
}

func TestDumpCapturesLibPQDetails(t *testing.T) {
	d := Dump(fmt.Errorf("insert order: %w", &pq.Error{Code: "23505", Constraint: "ux_orders_order_number"}))
	if d.PGCode != "23505" || d.PGConstraint != "ux_orders_order_number" {
		t.Fatalf("pq details not captured: %+v", d)
	}
	if d.Code != "" || d.Step != "" {
		t.Fatalf("untyped errors carry no code: %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
