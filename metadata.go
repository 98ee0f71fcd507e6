package networth

import (
	"encoding/json"
	"fmt"
	"io"
)

// AssetMeta is the static description of one asset identifier.
type AssetMeta struct {
	// Currency is the quote currency of the asset's price series ("EUR",
	// "USD", ...). Raw prices are multiplied by the forex rate of this
	// currency to obtain EUR values.
	Currency string `json:"currency"`

	// PriceSource, when set, names the identifier whose price series must be
	// consulted instead of the asset's own symbol. Staked or receipt tokens
	// without a feed of their own reuse their underlying's series this way.
	PriceSource string `json:"price_source,omitempty"`

	// Family, when set, names the position that owns this asset's cost
	// basis. A wrapped token defers all principal bookkeeping to its
	// unwrapped counterpart.
	Family string `json:"family,omitempty"`
}

// Metadata maps asset identifiers to their static description. It is loaded
// once and shared read-only; lookups for unknown assets return a zero meta,
// which means: own symbol as price source, no family, EUR pricing.
type Metadata map[string]AssetMeta

// Get returns the metadata for an asset, or a usable zero value.
func (m Metadata) Get(asset string) AssetMeta {
	if m == nil {
		return AssetMeta{}
	}
	return m[asset]
}

// PriceSource returns the identifier whose series prices the asset.
func (m Metadata) PriceSource(asset string) string {
	if src := m.Get(asset).PriceSource; src != "" {
		return src
	}
	return asset
}

// Currency returns the quote currency of the asset's series, EUR by default.
func (m Metadata) Currency(asset string) string {
	if c := m.Get(asset).Currency; c != "" {
		return c
	}
	return "EUR"
}

// Family returns the proxy coin owning the asset's cost basis, or "".
func (m Metadata) Family(asset string) string { return m.Get(asset).Family }

// DecodeMetadata reads the asset metadata JSON document, a single object
// keyed by asset identifier.
func DecodeMetadata(r io.Reader) (Metadata, error) {
	var m Metadata
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("could not decode asset metadata: %w", err)
	}
	return m, nil
}
