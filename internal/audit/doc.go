// Package audit keeps the node's operational journal in SQLite.
//
// The journal records things an operator wants to see after the fact:
// actuator commands, failed request dispatches and fault escalations. It is
// not a metrics store; counts live in the API metrics endpoint and history in
// InfluxDB.
//
// Writes are best effort. A Journal built over a nil database discards
// entries, so the node keeps running with the database disabled.
package audit
