package rastertile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// A PostProcess identifies a per-tile pixel transform applied after decoding.
type PostProcess int

const (
	PostProcessNone PostProcess = iota
	PostProcessBlackToTransparent
)

// A Provider describes a remote XYZ tile endpoint. The URL template contains
// {z}, {x}, {y}, and optionally {api_key} placeholders.
type Provider struct {
	Name           string
	URLTemplate    string
	TileSize       int
	RequiresAPIKey bool
	APIKeyEnv      string
	PostProcess    PostProcess
	Description    string
	MinZoom        int
	MaxZoom        int
	Attribution    string
	LicenseURL     string
	DataSource     string
}

const (
	stadiaAPIKeyEnv = "STADIA_API_KEY"
	stadiaTerms     = "https://stadiamaps.com/terms-of-service/"
	esriTerms       = "https://www.esri.com/en-us/legal/terms/full-master-agreement"
	cartoTerms      = "https://carto.com/legal/"
)

var providers = map[string]Provider{
	"Stadia.StamenTerrain": {
		URLTemplate:    "https://tiles.stadiamaps.com/tiles/stamen_terrain/{z}/{x}/{y}@2x.png?api_key={api_key}",
		TileSize:       512,
		RequiresAPIKey: true,
		APIKeyEnv:      stadiaAPIKeyEnv,
		Description:    "Stadia Maps terrain tiles (formerly Stamen)",
		MinZoom:        0,
		MaxZoom:        18,
		Attribution:    "© Stadia Maps, © Stamen Design, © OpenMapTiles, © OpenStreetMap contributors",
		LicenseURL:     stadiaTerms,
		DataSource:     "OpenStreetMap",
	},
	"Stadia.AlidadeSmooth": {
		URLTemplate:    "https://tiles.stadiamaps.com/tiles/alidade_smooth/{z}/{x}/{y}@2x.png?api_key={api_key}",
		TileSize:       512,
		RequiresAPIKey: true,
		APIKeyEnv:      stadiaAPIKeyEnv,
		Description:    "Stadia Maps smooth basemap",
		MinZoom:        0,
		MaxZoom:        20,
		Attribution:    "© Stadia Maps, © OpenMapTiles, © OpenStreetMap contributors",
		LicenseURL:     stadiaTerms,
		DataSource:     "OpenStreetMap",
	},
	"Esri.Terrain": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Terrain_Base/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Terrain Base",
		MinZoom:     0,
		MaxZoom:     13,
		Attribution: "Source: Esri, Earthstar Geographics",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.Relief": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Shaded_Relief/MapServer/tile/{z}/{y}/{x}.jpg",
		TileSize:    256,
		Description: "Esri World Shaded Relief",
		MinZoom:     0,
		MaxZoom:     13,
		Attribution: "Source: Esri",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.Hydro": {
		URLTemplate: "https://tiles.arcgis.com/tiles/P3ePLMYs2RVChkJx/arcgis/rest/services/Esri_Hydro_Reference_Overlay/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		PostProcess: PostProcessBlackToTransparent,
		Description: "Esri Hydro Reference Overlay",
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "Source: Esri",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.WorldImagery": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Imagery (satellite)",
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "Source: Esri, Maxar, Earthstar Geographics, and the GIS User Community",
		LicenseURL:  esriTerms,
		DataSource:  "Esri/Maxar",
	},
	"Esri.WorldTopo": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Topographic Map",
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "Source: Esri, HERE, Garmin, Intermap, increment P Corp., GEBCO, USGS, FAO, NPS, NRCAN, GeoBase, IGN, Kadaster NL, Ordnance Survey, Esri Japan, METI, Esri China (Hong Kong), © OpenStreetMap contributors, GIS User Community",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.NatGeo": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/NatGeo_World_Map/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri National Geographic World Map",
		MinZoom:     0,
		MaxZoom:     16,
		Attribution: "Source: National Geographic, Esri, Garmin, HERE, UNEP-WCMC, USGS, NASA, ESA, METI, NRCAN, GEBCO, NOAA, increment P Corp.",
		LicenseURL:  esriTerms,
		DataSource:  "National Geographic/Esri",
	},
	"Esri.WorldStreet": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Street_Map/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Street Map",
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "Source: Esri, HERE, Garmin, USGS, Intermap, INCREMENT P, NRCan, Esri Japan, METI, Esri China (Hong Kong), Esri Korea, Esri (Thailand), NGCC, © OpenStreetMap contributors, GIS User Community",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.GrayCanvasBase": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/Canvas/World_Gray_Canvas/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Gray Canvas Base",
		MinZoom:     0,
		MaxZoom:     16,
		Attribution: "Source: Esri, HERE, Garmin, © OpenStreetMap contributors, GIS User Community",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.GrayCanvasLabels": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/Canvas/World_Gray_Canvas_Reference/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Gray Canvas Labels",
		MinZoom:     0,
		MaxZoom:     16,
		Attribution: "Source: Esri, HERE, Garmin, © OpenStreetMap contributors, GIS User Community",
		LicenseURL:  esriTerms,
		DataSource:  "Esri",
	},
	"Esri.WorldOceanBase": {
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/Ocean/World_Ocean_Base/MapServer/tile/{z}/{y}/{x}",
		TileSize:    256,
		Description: "Esri World Ocean Base",
		MinZoom:     0,
		MaxZoom:     10,
		Attribution: "Source: Esri, GEBCO, NOAA, National Geographic, Garmin, HERE, Geonames.org",
		LicenseURL:  esriTerms,
		DataSource:  "Esri/GEBCO",
	},
	"Carto.Positron": {
		URLTemplate: "https://a.basemaps.cartocdn.com/light_all/{z}/{x}/{y}@2x.png",
		TileSize:    512,
		Description: "Carto Positron (light basemap)",
		MinZoom:     0,
		MaxZoom:     20,
		Attribution: "© CARTO, © OpenStreetMap contributors",
		LicenseURL:  cartoTerms,
		DataSource:  "OpenStreetMap",
	},
	"Carto.DarkMatter": {
		URLTemplate: "https://a.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}@2x.png",
		TileSize:    512,
		Description: "Carto Dark Matter (dark basemap)",
		MinZoom:     0,
		MaxZoom:     20,
		Attribution: "© CARTO, © OpenStreetMap contributors",
		LicenseURL:  cartoTerms,
		DataSource:  "OpenStreetMap",
	},
	"OSM.Standard": {
		URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		TileSize:    256,
		Description: "OpenStreetMap Standard tiles",
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "© OpenStreetMap contributors",
		LicenseURL:  "https://www.openstreetmap.org/copyright",
		DataSource:  "OpenStreetMap",
	},
}

// Providers returns the names of all known providers, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupProvider returns the configuration of the named provider.
func LookupProvider(name string) (Provider, error) {
	provider, ok := providers[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProvider, name, strings.Join(Providers(), ", "))
	}
	provider.Name = name
	return provider, nil
}

// URL returns the tile URL for t, substituting the z, x, y, and api_key
// placeholders.
func (p Provider) URL(t Tile, apiKey string) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
		"{api_key}", apiKey,
	).Replace(p.URLTemplate)
}

// LicenseInfo returns the attribution line to display with maps drawn from
// this provider's tiles. An empty year means the current year.
func (p Provider) LicenseInfo(year string, includeURL bool) string {
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}
	info := fmt.Sprintf("%s (%s)", p.Attribution, year)
	if includeURL && p.LicenseURL != "" {
		info += ". License: " + p.LicenseURL
	}
	return info
}

// CombineLicenses joins the attribution lines of multiple providers into a
// single line, dropping duplicates and preserving order.
func CombineLicenses(licenses []string) string {
	seen := make(map[string]struct{}, len(licenses))
	combined := make([]string, 0, len(licenses))
	for _, license := range licenses {
		if _, ok := seen[license]; ok {
			continue
		}
		seen[license] = struct{}{}
		combined = append(combined, license)
	}
	return strings.Join(combined, " | ")
}
