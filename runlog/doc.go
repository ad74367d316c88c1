// Package runlog keeps a history of ETL runs in a SQL database.
//
// Every run that gets past loading is recorded with its outcome, timing and
// one row per processed stage. The schema is versioned with golang-migrate
// using the SQL files embedded from migrations/, and rows are read and
// written through GORM. The default driver is SQLite, so a single file next
// to the processed data is enough:
//
//	history:
//	  enabled: true
//	  dsn: cemint.db
//
// Component plugs the database into the bootstrap lifecycle; Store is what
// the orchestrator, the API and the CLI use.
package runlog
