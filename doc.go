// Package scatgat provides a parallel scatter-gather I/O layer for a
// VDIF packet stream striped across a module×disk grid of SG files.
//
// A Plan binds a process to a chosen grid of files in either read or
// write mode. BuildReadPlan and BuildWritePlan open every file on the
// grid in parallel; ReadNextBlock/ReadBlock and WriteFrames move data
// through the stripe one call at a time; CloseReadPlan/CloseWritePlan and
// Free release the plan's resources.
package scatgat
