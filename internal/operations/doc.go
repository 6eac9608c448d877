// Package operations runs the dataset pipeline as an ordered list of steps.
//
// A Manager executes the steps held by a Registry one after another, sharing
// intermediate tables through the OperationState context map. Each step gets
// a span, a duration metric and structured log events keyed by operation_id.
// The first failure stops the run: later steps are marked skipped and the
// returned *OperationError names the failing step.
//
// The pipeline registered by NewPipeline is:
//
//	load        read the raw table, fetching the archive when missing
//	preprocess  apply the dataset's cleaning rules, save preprocessed_data.csv
//	split       shuffle into train/test and persist with metadata.json
//	verify      reload the persisted split and compare it with what was written
package operations
