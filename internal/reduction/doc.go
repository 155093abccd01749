// Package reduction implements the in-memory lifecycle of reflectometry
// measurements: a bounded FIFO cache of loaded runs, the angle-ordered
// reduction list and the direct-beam list, nearest-run direct-beam
// matching, the session orchestrator driving loads and specular /
// off-specular / GISANS calculations, and the stitch-and-merge engine
// producing one continuous reflectivity curve per polarization channel plus
// the derived spin-asymmetry channel.
//
// File parsing, physics kernels and rendering live outside this package,
// behind the Loader, calculator and Instrument interfaces.
package reduction
