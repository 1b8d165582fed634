// Package storage provides the SQLite conversion ledger.
//
// The ledger is an append-only history of conversion runs. It never
// decides what gets converted; every run still processes every file.
//
// # Database Schema
//
// Tables:
//   - runs: one row per converter invocation (roots, settings, counts, status)
//   - outputs: one row per source file processed (paths, SHA-256 of the
//     source bytes, segment count, resolved tags, error text)
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	ledger, err := storage.NewSQLiteStorage("/var/lib/txt2jsonl/ledger.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ledger.Close()
//
//	run := &storage.Run{ID: uuid.NewString(), SourceRoot: src, DestRoot: dst}
//	if err := ledger.CreateRun(ctx, run); err != nil {
//	    return err
//	}
//	// ... convert, calling ledger.RecordOutput per file ...
//	run.Status = storage.RunCompleted
//	err = ledger.FinishRun(ctx, run)
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
package storage
