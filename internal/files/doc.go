// Package files provides file system operations for a dataset project
// directory.
//
// Manager resolves relative paths against the project directory and wraps
// the handful of operations the pipeline needs: existence checks, directory
// creation, synced file writes and deletion.
//
// Transaction makes a multi-file save all-or-nothing:
//
//	tx := manager.Begin()
//	defer tx.Rollback()
//	if err := tx.CreateDirectory("processed"); err != nil {
//	    return err
//	}
//	if err := tx.CreateFile("processed/train.csv", writeTrain); err != nil {
//	    return err
//	}
//	tx.Commit()
package files
