package typeid

import (
	"errors"
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix Prefix
	}{
		{NewSnapshotID, Snapshot},
		{NewOpID, Op},
		{NewAssetID, Asset},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, string(tt.prefix)+"_") {
			t.Errorf("%q lacks prefix %q", id, tt.prefix)
		}
		if err := Validate(id, tt.prefix); err != nil {
			t.Errorf("Validate(%q): %v", id, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewOpID(), Asset); !errors.Is(err, ErrInvalid) {
		t.Errorf("wrong prefix: %v", err)
	}
	if err := Validate("not-an-id", Op); !errors.Is(err, ErrInvalid) {
		t.Errorf("garbage: %v", err)
	}
	if NewOpID() == NewOpID() {
		t.Error("ids repeat")
	}
}
