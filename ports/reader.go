package ports

import "socialstats/domain/dataset"

// DatasetReader loads a tabular source into an immutable dataset
type DatasetReader interface {
	ReadData() (*dataset.Dataset, error)
}
