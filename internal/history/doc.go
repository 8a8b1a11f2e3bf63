// Package history persists workflow run records for Vigil Core.
//
// Every workflow execution is written as a row when it starts and
// updated once when it ends, capturing status, module failures and
// duration. The table survives restarts, so operators can audit what
// ran, when and how it finished long after the process is gone.
//
// # Key Types
//
//   - Run: Audit record of a single workflow execution
//   - ModuleFailure: Details of one failed module within a run
//   - Store: Persistence interface (SQLite implementation provided)
//
// # Thread Safety
//
// SQLiteStore is safe for concurrent use from multiple goroutines;
// it holds no state beyond the *sql.DB handle, which manages its own
// connection pool.
//
// # Usage
//
//	store := history.NewSQLiteStore(db)
//
//	run := &history.Run{ID: runID, Workflow: "sweep", Status: history.StatusRunning}
//	if err := store.CreateRun(ctx, run); err != nil {
//	    return err
//	}
//
//	// ... run the workflow ...
//
//	run.Status = history.StatusCompleted
//	run.CompletedAt = &finished
//	if err := store.UpdateRun(ctx, run); err != nil {
//	    return err
//	}
package history
