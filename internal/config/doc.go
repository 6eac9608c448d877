// Package config provides centralized configuration management for datalab.
// It handles loading configuration from multiple sources, validation, and the
// on-disk layout of each dataset project.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), including those read from .env
//  2. The YAML file datalab.yaml or configs/datalab.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables use the DATALAB_ prefix; the unprefixed name is accepted as well,
// so a lab-style .env file with a bare DATA_DIR keeps working:
//
//	DATA_DIR=/srv/datasets
//	DATALAB_DATASET=car_price
//	DATALAB_SPLIT_TEST_SIZE=0.25
//	DATALAB_LOGGING_LEVEL=debug
//
// # Path Management
//
// Paths resolves the per-project layout below the data directory:
//
//	paths := config.GetPaths(cfg.DataDir, "housing")
//	raw := paths.ProjectFile("housing.csv")
//	train := paths.ProcessedFile("train.csv")
package config
