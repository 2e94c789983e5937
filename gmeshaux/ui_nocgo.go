//go:build tinygo || !cgo

package gmeshaux

import (
	"errors"
)

func ui(state *ViewerState, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
