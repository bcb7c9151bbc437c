// Package database stores run history in SQLite (modernc.org/sqlite,
// CGO-free).
//
// Each run records its targets with their counters and the ordered findings
// sequence. Findings are attributed to the target whose scope they fall in,
// which lets two runs of the same target be compared.
package database
