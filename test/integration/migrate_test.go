package integration

import (
	"context"
	"testing"
)

func TestMigrator_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	schema := uniqueSchema("migrate")
	defer dropSchema(t, schema)

	m := newMigrator()
	applied, err := m.Up(ctx, schema, 0)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if applied == 0 {
		t.Fatal("expected migrations to be applied")
	}

	again, err := m.Up(ctx, schema, 0)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if again != 0 {
		t.Errorf("second Up applied %d migrations", again)
	}

	statuses, err := m.Status(ctx, schema)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range statuses {
		if !st.Applied || st.AppliedAt == nil {
			t.Errorf("migration %s not applied", st.Name)
		}
	}
}

func TestMigrator_CreatesTables(t *testing.T) {
	ctx := context.Background()
	schema := migratedSchema(t, "tables")

	for _, table := range []string{
		"patient", "patient_record",
		"device", "device_record",
		"observation", "observation_record",
	} {
		var exists bool
		err := globalDB.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
			schema, table).Scan(&exists)
		if err != nil {
			t.Fatalf("query %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s.%s missing", schema, table)
		}
	}
}

func TestMigrator_RejectsBadSchema(t *testing.T) {
	if _, err := newMigrator().Up(context.Background(), "bad-schema; DROP", 0); err == nil {
		t.Error("expected invalid schema error")
	}
}
