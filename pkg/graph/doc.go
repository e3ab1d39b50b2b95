// Package graph defines the build-plate scene graph for strata.
// The scene graph is an immutable DAG of primitive solids, imported
// meshes, transforms, and plates that describes what goes on the printer
// bed, plus the print settings a job script overrides.
package graph
