// Package project defines the record extracted for one PROJIS project.
//
// A Project holds the fixed set of columns written to the dump file. The
// column set and order is the same for every record in a run; fields that
// could not be extracted stay empty strings rather than being omitted.
package project
