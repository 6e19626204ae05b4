package record

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestLayout(t *testing.T) {
	var r Record
	if got := unsafe.Sizeof(r); got != Size {
		t.Errorf("Sizeof(Record) = %d, want %d", got, Size)
	}
	if got := unsafe.Offsetof(r.Ratio); got != offRatio {
		t.Errorf("Offsetof(Ratio) = %d, want %d", got, offRatio)
	}
	if got := unsafe.Offsetof(r.Coords); got != offCoords {
		t.Errorf("Offsetof(Coords) = %d, want %d", got, offCoords)
	}
}

func TestNew(t *testing.T) {
	r := New()
	if !r.Valid() {
		t.Fatalf("New() = %+v, want fixed values", *r)
	}
	if r.Magic != 0x13371337 {
		t.Errorf("Magic = %#x, want 0x13371337", r.Magic)
	}
	if r.Coords != [3]float64{1, 2, 3} {
		t.Errorf("Coords = %v, want [1 2 3]", r.Coords)
	}
}

func TestBytesMatchesEncode(t *testing.T) {
	r := New()
	if !bytes.Equal(r.Bytes(), Encode()) {
		t.Errorf("Bytes() = %x, want %x", r.Bytes(), Encode())
	}
	if !bytes.HasPrefix(r.Bytes(), MagicPattern()) {
		t.Errorf("record memory does not start with marker %x", MagicPattern())
	}
	if uintptr(unsafe.Pointer(&r.Bytes()[0])) != r.Addr() {
		t.Errorf("Bytes() is not a view over the record at %#x", r.Addr())
	}
}

func TestMagicPattern(t *testing.T) {
	p := MagicPattern()
	if len(p) != 4 {
		t.Fatalf("len(MagicPattern()) = %d, want 4", len(p))
	}
	// little-endian or big-endian image of 0x13371337
	if !bytes.Equal(p, []byte{0x37, 0x13, 0x37, 0x13}) && !bytes.Equal(p, []byte{0x13, 0x37, 0x13, 0x37}) {
		t.Errorf("MagicPattern() = %x", p)
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name    string
		input   []byte
		valid   bool
		wantErr bool
	}{
		{
			name:  "canonical image",
			input: Encode(),
			valid: true,
		},
		{
			name:  "corrupted marker",
			input: append([]byte{0, 0, 0, 0}, Encode()[4:]...),
			valid: false,
		},
		{
			name:    "short image",
			input:   Encode()[:Size-1],
			wantErr: true,
		},
		{
			name:    "empty",
			input:   nil,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if got.Valid() != tc.valid {
				t.Errorf("Decode().Valid() = %v, want %v (%+v)", got.Valid(), tc.valid, got)
			}
		})
	}
}
