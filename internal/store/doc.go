// Package store provides durable SQLite storage for the glossary pipeline:
// run lifecycle rows, glossary terms, and review issues.
//
// Two access paths exist. A run worker acquires a dedicated Conn and owns
// it exclusively for the run's duration; all of its writes go through the
// nestable WithTx primitive (real transaction at the outermost level,
// savepoints when nested). Read-only observers (CLI status, exports) query
// through pool connections on Store directly.
package store
