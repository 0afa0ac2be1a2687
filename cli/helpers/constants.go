package helpers

// Mode selects how commands render results.
type Mode string

const (
	// ModeTUI renders styled, human-oriented output.
	ModeTUI Mode = "tui"
	// ModeJSON renders machine-readable JSON.
	ModeJSON Mode = "json"
)

// OutputFormat represents the values accepted by --format.
type OutputFormat string

const (
	OutputFormatAuto OutputFormat = "auto"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatTUI  OutputFormat = "tui"
)

const (
	FlagFormat  = "format"
	FlagNoColor = "no-color"
	// StdinPath makes --input read from standard input.
	StdinPath = "-"
)
