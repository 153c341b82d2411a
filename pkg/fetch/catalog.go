package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cifworks/go-cifmodel/internal/model"
)

// CatalogEntry describes one official COMCIFS dictionary.
type CatalogEntry struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	DictType    model.DictType `json:"dictType"`
}

// catalog holds the stable raw.githubusercontent URLs of the COMCIFS
// dictionaries. The order matters only for display.
var catalog = []CatalogEntry{
	{
		Key:         "cif_core",
		Name:        "Core Dictionary (cif_core.dic)",
		Description: "Standard crystallographic data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/cif_core/refs/heads/master/cif_core.dic",
		DictType:    model.DictTypeCore,
	},
	{
		Key:         "cif_pow",
		Name:        "Powder Dictionary (cif_pow.dic)",
		Description: "Powder diffraction data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Powder_Dictionary/refs/heads/master/cif_pow.dic",
		DictType:    model.DictTypePowder,
	},
	{
		Key:         "cif_topo",
		Name:        "Topology Dictionary (cif_topo.dic)",
		Description: "Topology descriptions",
		URL:         "https://raw.githubusercontent.com/COMCIFS/TopoCif/refs/heads/main/cif_topo.dic",
		DictType:    model.DictTypeTopology,
	},
	{
		Key:         "cif_mag",
		Name:        "Magnetic Dictionary (cif_mag.dic)",
		Description: "Magnetic structure data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/magnetic_dic/refs/heads/main/cif_mag.dic",
		DictType:    model.DictTypeMagnetic,
	},
	{
		Key:         "cif_img",
		Name:        "Image Dictionary (cif_img.dic)",
		Description: "Image and area detector data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/imgCIF/refs/heads/master/cif_img.dic",
		DictType:    model.DictTypeImage,
	},
	{
		Key:         "cif_ed",
		Name:        "Electron Diffraction Dictionary (cif_ed.dic)",
		Description: "Electron diffraction data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/cif_ed/refs/heads/main/cif_ed.dic",
		DictType:    model.DictTypeElectron,
	},
	{
		Key:         "cif_multiblock",
		Name:        "Multi-Block Dictionary (multi_block_core.dic)",
		Description: "Multi-container data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/MultiBlock_Dictionary/refs/heads/main/multi_block_core.dic",
		DictType:    model.DictTypeMultiBlock,
	},
	{
		Key:         "cif_ms",
		Name:        "Modulated Structures Dictionary (cif_ms.dic)",
		Description: "Modulated structure data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Modulated_Structures/refs/heads/main/cif_ms.dic",
		DictType:    model.DictTypeModulated,
	},
	{
		Key:         "cif_rho",
		Name:        "Electron Density Dictionary (cif_rho.dic)",
		Description: "Electron density data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Electron_Density_Dictionary/refs/heads/main/cif_rho.dic",
		DictType:    model.DictTypeDensity,
	},
	{
		Key:         "cif_twin",
		Name:        "Twinning Dictionary (cif_twin.dic)",
		Description: "Twinning data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Twinning_Dictionary/refs/heads/main/cif_twin.dic",
		DictType:    model.DictTypeTwinning,
	},
	{
		Key:         "cif_rstr",
		Name:        "Restraints Dictionary (cif_rstr.dic)",
		Description: "Restraints data",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Restraints_Dictionary/refs/heads/main/cif_rstr.dic",
		DictType:    model.DictTypeRestraints,
	},
}

// Catalog returns a copy of the COMCIFS dictionary catalog.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogEntryByKey looks up one catalog entry.
func CatalogEntryByKey(key string) (CatalogEntry, bool) {
	for _, e := range catalog {
		if e.Key == key {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// FetchResult is the outcome of one FetchAll download.
type FetchResult struct {
	Entry CatalogEntry
	Data  []byte
	Err   error
}

// FetchAll downloads every entry concurrently, at most limit requests in
// flight (limit <= 0 means unbounded). Individual failures land in the
// result's Err; the call itself only fails when the context is cancelled.
func (c *Client) FetchAll(ctx context.Context, entries []CatalogEntry, limit int) []FetchResult {
	results := make([]FetchResult, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, entry := range entries {
		g.Go(func() error {
			data, err := c.Fetch(ctx, entry.URL)
			results[i] = FetchResult{Entry: entry, Data: data, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
