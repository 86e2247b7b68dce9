package syncstate

import (
	"github.com/mezonai/lightsync/chainspec"
	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/jsonx"
)

// patch replaces the whole light sync state slot of doc with value.
func patch(doc *chainspec.ChainSpec, value jsonx.RawMessage) error {
	if !doc.Extensions().Replace(chainspec.LightSyncStateKind, value) {
		return lserrors.ExtensionNotFound()
	}
	return nil
}
