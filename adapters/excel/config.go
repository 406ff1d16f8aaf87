package excel

import "socialstats/domain/dataset"

// ReaderConfig holds configuration for a tabular data source
type ReaderConfig struct {
	// Sheet is the worksheet read from XLSX files
	Sheet         string                `json:"sheet"`
	MissingPolicy dataset.MissingPolicy `json:"missing_policy"`
	Deduplicate   bool                  `json:"deduplicate"`
	// MissingTokens are cell values read as missing, compared case-insensitively
	MissingTokens []string `json:"missing_tokens"`
}

// DefaultReaderConfig returns sensible defaults for file ingestion
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Sheet:         "Sheet1",
		MissingPolicy: dataset.MissingKeep,
		Deduplicate:   true,
		MissingTokens: []string{"", "na", "n/a", "nan", "null", "none", "-"},
	}
}
