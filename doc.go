// Package quarry is an embedded data-access layer: it maps an operator-based
// query description onto SQLite and coordinates multi-statement operations so
// they commit or roll back as a unit.
//
// Each logical database is one SQLite file under a storage directory, created
// lazily on first reference. Queries are described with the structures in
// query/sqlgen, compiled into parameterized SQL, and executed through the
// driver capability contract in the driver package. The client package is the
// public entry point.
package quarry
