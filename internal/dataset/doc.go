// Package dataset loads, splits and persists tabular datasets.
//
// A Source names a dataset and where its archive lives. Loader reads the
// source's table below a data directory and fetches and extracts the archive
// only when the table file is missing, so repeated runs never re-download.
//
// Split partitions a table into train and test tables with a seeded
// permutation. Store writes a split together with its ExperimentConfig as
// train.csv, test.csv and metadata.json, all or nothing, and reads it back:
//
//	store := dataset.NewStore(logger)
//	train, test, err := store.SplitAndSave(ctx, dataDir, dataset.Housing(), clean,
//	    dataset.ExperimentConfig{TestSize: 0.2, RandomState: 42})
//	...
//	train, test, cfg, err := store.LoadSplit(ctx, dataDir, dataset.Housing())
package dataset
