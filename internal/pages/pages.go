package pages

// Page identifies one tracked page on the site. The set is closed and known
// at compile time; every counter key in the store is namespaced by one of
// these identifiers.
type Page string

const (
	Home            Page = "home"
	OKRSjekk        Page = "okr-sjekk"
	Konseptspeil    Page = "konseptspeil"
	Antakelseskart  Page = "antakelseskart"
	Premortem       Page = "premortem"
	Beslutningslogg Page = "beslutningslogg"
	Sloyfen         Page = "sloyfen"
)

// Default is the fallback for unknown or missing page identifiers.
const Default = Home

type info struct {
	label  string
	legacy string // token used in the legacy all-time counter key
}

var registry = map[Page]info{
	Home:            {label: "Forsiden", legacy: "forside"},
	OKRSjekk:        {label: "OKR-sjekk", legacy: "okr-sjekk"},
	Konseptspeil:    {label: "Konseptspeil", legacy: "konseptspeil"},
	Antakelseskart:  {label: "Antakelseskart", legacy: "antakelseskart"},
	Premortem:       {label: "Pre-mortem", legacy: "premortem"},
	Beslutningslogg: {label: "Beslutningslogg", legacy: "beslutningslogg"},
	Sloyfen:         {label: "Beslutningssløyfen", legacy: "sloyfen"},
}

// ordered keeps a stable iteration order for the all-pages snapshot.
var ordered = []Page{
	Home,
	OKRSjekk,
	Konseptspeil,
	Antakelseskart,
	Premortem,
	Beslutningslogg,
	Sloyfen,
}

// Known reports whether id names a tracked page.
func Known(id string) bool {
	_, ok := registry[Page(id)]
	return ok
}

// Normalize maps an arbitrary page identifier to a tracked page, falling
// back to Default for unknown or empty input.
func Normalize(id string) Page {
	if Known(id) {
		return Page(id)
	}
	return Default
}

// Label returns the display label for the page.
func (p Page) Label() string {
	return registry[p].label
}

// LegacyName returns the token used in the all-time view counter key.
// The total counter predates the per-page key scheme and is keyed by this
// name rather than the page identifier.
func (p Page) LegacyName() string {
	return registry[p].legacy
}

// All returns every tracked page in stable order.
func All() []Page {
	out := make([]Page, len(ordered))
	copy(out, ordered)
	return out
}
