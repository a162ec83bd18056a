package models

import "testing"

func TestGrid_Fields(t *testing.T) {
	g := NewGrid([]float64{-1, 0}, []float64{100, 101, 102})

	if g.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", g.Len())
	}

	if err := g.SetField(VarWaveHeight, []float64{1, 2, 3}); err == nil {
		t.Error("SetField() with wrong length expected error")
	}

	if err := g.SetField(VarWaveHeight, make([]float64, 6)); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if err := g.SetField(VarWindU, make([]float64, 6)); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}

	if err := g.Rename(VarWaveHeight, ColWave); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, ok := g.Field(VarWaveHeight); ok {
		t.Error("old field name still present after Rename()")
	}
	if err := g.Rename("missing", "x"); err == nil {
		t.Error("Rename(missing) expected error")
	}

	g.Drop(VarWindU, "not-there")
	names := g.FieldNames()
	if len(names) != 1 || names[0] != ColWave {
		t.Errorf("FieldNames() = %v, want [WAVE]", names)
	}
}
