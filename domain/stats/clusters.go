package stats

import "socialstats/domain/core"

// ClusterAssignment labels one complete dataset row
type ClusterAssignment struct {
	Row   int `json:"row"`
	Label int `json:"label"`
}

// ColumnSummary is the per-column sub-statistics of one cluster, original units
type ColumnSummary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// ClusterProfile is a read-only summary of one cluster
type ClusterProfile struct {
	Label      int                      `json:"label"`
	Size       int                      `json:"size"`
	Percentage float64                  `json:"percentage"`
	Centroid   map[string]float64       `json:"centroid"`
	Columns    map[string]ColumnSummary `json:"columns"`
}

// SilhouetteScore is the silhouette obtained for one candidate k
type SilhouetteScore struct {
	K     int     `json:"k"`
	Score float64 `json:"score"`
}

// Projection is the principal-component view of the standardized data
type Projection struct {
	Components             int         `json:"components"`
	ExplainedVarianceRatio []float64   `json:"explained_variance_ratio"`
	Points                 [][]float64 `json:"points"` // aligned with ClusterResult.Assignments
}

// ClusterResult is the outcome of one clustering run
type ClusterResult struct {
	ID            core.ID             `json:"id"`
	Columns       []string            `json:"columns"`
	K             int                 `json:"k"`
	AutoSelected  bool                `json:"auto_selected"`
	Silhouette    float64             `json:"silhouette"`
	SilhouetteByK []SilhouetteScore   `json:"silhouette_by_k,omitempty"`
	Inertia       float64             `json:"inertia"`
	Seed          int64               `json:"seed"`
	Rows          int                 `json:"rows"`
	Assignments   []ClusterAssignment `json:"assignments"`
	Profiles      []ClusterProfile    `json:"profiles"`
	Projection    *Projection         `json:"projection,omitempty"`
	ComputedAt    core.Timestamp      `json:"computed_at"`
}
