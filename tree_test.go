package bitfield

import (
	"testing"
)

// threeField builds struct([("lo", uint(7)), ("mid", uint(7)), ("hi", uint(7))]).
func threeField(t testing.TB) *Type {
	u7 := mustT(t)(Uint(7))
	return mustT(t)(StructOf([]StructField{
		{Name: "lo", Type: u7},
		{Name: "mid", Type: u7},
		{Name: "hi", Type: u7},
	}))
}

// questType builds the nested quest/parrot layout used across the tests.
func questType(t testing.TB) *Type {
	status := mustT(t)(UintEnum(2, Enum{"dead": 0, "pining": 1, "resting": 2}))
	rgb := mustT(t)(mustT(t)(Uint(5)).Array(3))
	parrot := mustT(t)(StructOf([]StructField{
		{Name: "status", Type: status},
		{Name: "rgb", Type: rgb},
	}))
	return mustT(t)(StructOf([]StructField{
		{Name: "holy", Type: mustT(t)(Uint(1))},
		{Name: "parrot", Type: parrot},
	}))
}

func TestInstantiateOffsets(t *testing.T) {
	root := Instantiate(threeField(t))

	if root.Offset() != 0 || root.Width() != 21 {
		t.Fatalf("TestInstantiateOffsets(root): got (%d, %d), want (0, 21)", root.Offset(), root.Width())
	}

	wants := []struct {
		name   string
		offset int
	}{
		{"lo", 0},
		{"mid", 7},
		{"hi", 14},
	}
	for i, want := range wants {
		c := root.ChildAt(i)
		if c.Name() != want.name || c.Offset() != want.offset {
			t.Errorf("TestInstantiateOffsets(child %d): got (%q, %d), want (%q, %d)", i, c.Name(), c.Offset(), want.name, want.offset)
		}
		if c.Width() != 7 {
			t.Errorf("TestInstantiateOffsets(child %d): width: got %d, want 7", i, c.Width())
		}
	}

	// Struct children are contiguous: each child starts where the previous ended.
	sum := 0
	for i := 0; i < root.NumChildren(); i++ {
		c := root.ChildAt(i)
		if c.Offset() != sum {
			t.Errorf("TestInstantiateOffsets(contiguity): child %d at %d, want %d", i, c.Offset(), sum)
		}
		sum += c.Width()
	}
	if sum != root.Width() {
		t.Errorf("TestInstantiateOffsets(width sum): got %d, want %d", sum, root.Width())
	}
}

func TestInstantiateNested(t *testing.T) {
	root := Instantiate(questType(t))

	if root.Width() != 18 {
		t.Fatalf("TestInstantiateNested(width): got %d, want 18", root.Width())
	}

	wants := []struct {
		path   string
		offset int
		width  int
	}{
		{"holy", 0, 1},
		{"parrot", 1, 17},
		{"parrot.status", 1, 2},
		{"parrot.rgb", 3, 15},
		{"parrot.rgb[0]", 3, 5},
		{"parrot.rgb[1]", 8, 5},
		{"parrot.rgb[2]", 13, 5},
	}

	for _, want := range wants {
		n := root
		f := BindNode(n, NewCell())
		got, err := f.Get(want.path)
		if err != nil {
			t.Errorf("TestInstantiateNested(%s): got err == %s, want err == nil", want.path, err)
			continue
		}
		if got.Offset() != want.offset || got.Size() != want.width {
			t.Errorf("TestInstantiateNested(%s): got (%d, %d), want (%d, %d)", want.path, got.Offset(), got.Size(), want.offset, want.width)
		}
		if got.Path() != want.path {
			t.Errorf("TestInstantiateNested(%s): path: got %q", want.path, got.Path())
		}
	}
}

func TestArrayElementOffsets(t *testing.T) {
	elem := threeField(t)
	arr := mustT(t)(elem.Array(5))
	root := Instantiate(arr)

	if root.Width() != 5*21 {
		t.Fatalf("TestArrayElementOffsets(width): got %d, want %d", root.Width(), 5*21)
	}
	for k := 0; k < 5; k++ {
		c := root.ChildAt(k)
		if c.Offset() != k*21 {
			t.Errorf("TestArrayElementOffsets(elem %d): got %d, want %d", k, c.Offset(), k*21)
		}
	}
}
