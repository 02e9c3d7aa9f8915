// Package faultlog journals event handler faults.
//
// When a handler returns an error or panics, the dispatcher logs it and keeps
// going. A Recorder additionally keeps a Record of the fault so operators can
// inspect failing listeners after the fact. MemoryStore keeps a bounded ring in
// process; SQLiteStore persists records with the pure Go modernc.org/sqlite
// driver.
package faultlog
