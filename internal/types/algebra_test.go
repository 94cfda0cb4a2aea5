package types

import (
	"testing"

	"github.com/thrushlang/thrushc-sub009/internal/source"
)

func TestNarrowingIsInvolution(t *testing.T) {
	cases := []Type{S8, S16, S32, S64, SSize, U8, U16, U32, U64, USize, F32, Bool, Char, MakeOpaquePtr()}
	for _, tc := range cases {
		got := Narrowing(Narrowing(tc))
		if !Equal(got, tc) {
			t.Fatalf("Narrowing(Narrowing(%s)) = %s", tc, got)
		}
	}
}

func TestNarrowingFlipsSignedness(t *testing.T) {
	tests := []struct {
		in, want Type
	}{
		{S32, U32},
		{U8, S8},
		{SSize, USize},
		{F64, F64},
		{Bool, Bool},
	}
	for _, tt := range tests {
		if got := Narrowing(tt.in); !Equal(got, tt.want) {
			t.Errorf("Narrowing(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDereference(t *testing.T) {
	if got := Dereference(MakePtr(S32)); !Equal(got, S32) {
		t.Fatalf("expected s32, got %s", got)
	}
	opaque := MakeOpaquePtr()
	if got := Dereference(opaque); !Equal(got, opaque) {
		t.Fatalf("opaque pointer should dereference to itself, got %s", got)
	}
	for _, tc := range []Type{S64, Bool, MakeArray(U8), MakeMut(S8)} {
		if got := Dereference(tc); !Equal(got, tc) {
			t.Errorf("Dereference(%s) = %s, want identity", tc, got)
		}
	}
}

func TestStructFieldsAndFnRef(t *testing.T) {
	point := MakeStruct("Point", []Type{S32, S32}, StructModifiers{})
	if n := len(StructFields(point)); n != 2 {
		t.Fatalf("expected 2 fields, got %d", n)
	}
	if StructFields(S32) != nil {
		t.Fatalf("non-struct must have no fields")
	}
	fn := MakeFn([]Type{S32}, U64, false)
	if got := FnRefType(fn); !Equal(got, U64) {
		t.Fatalf("FnRefType = %s", got)
	}
	if got := FnRefType(Bool); !Equal(got, Bool) {
		t.Fatalf("FnRefType on bool = %s", got)
	}
}

func TestEqualIgnoresSpans(t *testing.T) {
	a := MakePtr(S32.At(source.Span{File: 1, Start: 4, End: 7})).At(source.Span{File: 1, Start: 0, End: 8})
	b := MakePtr(S32)
	if !Equal(a, b) {
		t.Fatalf("spans must not affect equality")
	}
	packed := MakeStruct("P", []Type{U8, U32}, StructModifiers{Packed: true})
	plain := MakeStruct("P", []Type{U8, U32}, StructModifiers{})
	if Equal(packed, plain) {
		t.Fatalf("packed modifier must affect equality")
	}
	if Equal(MakeFixedArray(U8, 3), MakeFixedArray(U8, 4)) {
		t.Fatalf("fixed array lengths differ")
	}
	if Equal(MakePtr(U8), MakeOpaquePtr()) {
		t.Fatalf("typed and opaque pointer must differ")
	}
}

func TestPredicates(t *testing.T) {
	if !IsInteger(MakeConst(U16)) || !IsSigned(S8) || IsSigned(U8) {
		t.Fatalf("integer predicates wrong")
	}
	if !IsPtrLike(MakeMut(S32)) || !IsPtrLike(MakeArray(U8)) || IsPtrLike(MakeFixedArray(U8, 2)) {
		t.Fatalf("pointer-like predicate wrong")
	}
	if got := Ref(S32); got.Kind != KindPtr || !Equal(*got.Elem, S32) {
		t.Fatalf("Ref(s32) = %s", got)
	}
	if got := Ref(MakeOpaquePtr()); !Equal(got, MakeOpaquePtr()) {
		t.Fatalf("Ref on pointer should be identity, got %s", got)
	}
	if bits, ok := IntBits(USize, 64); !ok || bits != 64 {
		t.Fatalf("IntBits(usize) = %d, %v", bits, ok)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Type
		want string
	}{
		{S32, "s32"},
		{USize, "usize"},
		{MakePtr(U8), "ptr[u8]"},
		{MakeOpaquePtr(), "ptr"},
		{MakeFixedArray(F32, 4), "array[f32; 4]"},
		{MakeMut(S64), "mut s64"},
		{MakeFn([]Type{MakeOpaquePtr()}, S32, true), "fn(ptr, ...) s32"},
		{MakeStruct("Point", nil, StructModifiers{}), "Point"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
