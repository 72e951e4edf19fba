package db

import (
	"math"
	"slices"
	"testing"
)

func TestFloat32Codec(t *testing.T) {
	in := []float32{0, 1.5, -2.25, math.MaxFloat32}
	data := EncodeFloat32(in)
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(data))
	}
	// 1.5 = 0x3FC00000, little-endian
	if data[4] != 0x00 || data[7] != 0x3F {
		t.Errorf("expected little-endian layout, got % x", data[4:8])
	}

	out, err := DecodeFloat32(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(in, out) {
		t.Errorf("expected %v, got %v", in, out)
	}
}

func TestDecodeFloat32_InvalidLength(t *testing.T) {
	if _, err := DecodeFloat32([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}

func TestDecodeFloat32_Empty(t *testing.T) {
	out, err := DecodeFloat32(nil)
	if err != nil || len(out) != 0 {
		t.Errorf("expected empty vector, got %v, %v", out, err)
	}
}
