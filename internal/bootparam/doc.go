// Package bootparam edits persistent kernel command-line arguments through
// an external boot-parameter editor (grubby by default).
//
// The Editor locates the tool on PATH, reads the current argument list of
// the selected kernel entry, and adds or removes a single argument. Calls
// are synchronous and bounded by a timeout. A toggle that would not change
// the argument list is skipped, so repeated calls are idempotent even when
// the underlying tool is not.
//
// Argument vector used for a change:
//
//	grubby --update-kernel=DEFAULT --args=lockdown=confidentiality
//	grubby --update-kernel=DEFAULT --remove-args=lockdown=confidentiality
package bootparam
