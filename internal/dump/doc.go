// Package dump writes extracted PROJIS records to a CSV file.
//
// The header row lists the column names in project.Columns order and each
// record contributes one data row. When no output filename is given the
// file is named projis_dump_<month>_<day>_<year>.csv from the current date.
package dump
