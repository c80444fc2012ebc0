// Package storage persists the rendered calendar to disk.
//
// The output file is overwritten on every run; no backup of the previous calendar
// is kept. A leading "~/" in the path is expanded to the user's home directory and
// missing parent directories are created.
package storage
