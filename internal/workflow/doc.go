// Package workflow is the scheduling core of the application. It holds a
// graph of named tasks with dependency edges, computes a valid execution
// order, runs each task with its own timeout and retry budget, and folds the
// outcomes into a single Result.
//
// The package is deliberately free of configuration and transport concerns:
// a task's Action is an opaque function supplied by the embedding layer, and
// results flow between tasks through a shared Context. Failures of individual
// tasks are contained as status records; the only hard failure Execute can
// surface before running anything is a dependency cycle.
package workflow
