package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "datalab/internal/errors"
)

// Source describes where a dataset comes from and where it lands on disk
type Source struct {
	Name          string        // project folder below the data directory
	URL           string        // archive download location
	ArchiveName   string        // file name the archive is saved under
	TableName     string        // delimited file inside the archive
	Timeout       time.Duration // bound on the whole download
	RemoveArchive bool          // delete the archive once extracted
}

const defaultTimeout = 10 * time.Second

var builtinSources = map[string]Source{
	"housing": {
		Name:        "housing",
		URL:         "https://raw.githubusercontent.com/ageron/handson-ml2/master/datasets/housing/housing.tgz",
		ArchiveName: "housing.tgz",
		TableName:   "housing.csv",
		Timeout:     defaultTimeout,
	},
	"car_price": {
		Name:        "car_price",
		URL:         "https://www.kaggle.com/api/v1/datasets/download/asinow/car-price-dataset",
		ArchiveName: "car_price_dataset.zip",
		TableName:   "car_price_dataset.csv",
		Timeout:     defaultTimeout,
	},
}

// Housing is the California housing census dataset
func Housing() Source { return builtinSources["housing"] }

// CarPrice is the car price dataset
func CarPrice() Source { return builtinSources["car_price"] }

// SourceNames lists the built-in dataset names in sorted order
func SourceNames() []string {
	names := make([]string, 0, len(builtinSources))
	for name := range builtinSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupSource returns the built-in source with the given name. Dashes are
// accepted in place of underscores.
func LookupSource(name string) (Source, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	src, ok := builtinSources[key]
	if !ok {
		return Source{}, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("unknown dataset %q (available: %s)", name, strings.Join(SourceNames(), ", ")))
	}
	return src, nil
}

// Validate checks that every field needed to fetch and locate the table is set
func (s Source) Validate() error {
	switch {
	case s.Name == "":
		return apperrors.NewInvalidArgumentError("source name is required")
	case s.URL == "":
		return apperrors.NewInvalidArgumentError("source URL is required")
	case s.ArchiveName == "":
		return apperrors.NewInvalidArgumentError("source archive name is required")
	case s.TableName == "":
		return apperrors.NewInvalidArgumentError("source table name is required")
	}
	return nil
}
