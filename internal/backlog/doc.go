// Package backlog persists content-production rows in SQLite and models
// their lifecycle. A row names a topic and a production mode; the
// pipeline fills in derived fields and advances the row's status until
// it is done. Rows are never deleted or reordered by the pipeline.
package backlog
