// Package typeid issues the prefixed, time-sortable ids carried by
// operations, snapshots and exported assets. Shapes keep integer ids.
package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

var ErrInvalid = errors.New("invalid id")

type Prefix string

const (
	Snapshot Prefix = "snap"
	Op       Prefix = "op"
	Asset    Prefix = "asset"
)

func New(p Prefix) string {
	return typeid.MustGenerate(string(p)).String()
}

func NewSnapshotID() string { return New(Snapshot) }
func NewOpID() string       { return New(Op) }
func NewAssetID() string    { return New(Asset) }

// Validate checks that id parses and carries prefix want. Failures wrap
// ErrInvalid.
func Validate(id string, want Prefix) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalid, id, err)
	}
	if got := Prefix(parsed.Prefix()); got != want {
		return fmt.Errorf("%w: %q has prefix %q, want %q", ErrInvalid, id, got, want)
	}
	return nil
}
