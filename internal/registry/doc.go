// Package registry provides the central "glue" between grid files and the
// compiled action modules.
//
// The Registry stores mappings between the action types used in task blocks
// (e.g., "http_fetch") and the actual Go functions and argument structs that
// implement them. During application startup the registry is populated by
// every compiled-in module and then validated against the loaded workflow, so
// an unknown action type or a malformed handler fails before any task runs.
package registry
