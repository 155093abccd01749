// Package asciidata implements the instrument-facing collaborators of the
// reduction core for column-oriented ASCII data files: a Loader that parses
// '.dat' files into measurements, an Instrument with a slit/wavelength
// direct-beam match predicate, calculators that normalize loaded curves
// against a direct beam, and a reader for previously written reduced files.
//
// The file format is deliberately plain: '# key: value' header lines, one
// '# channel:' line per cross-section block, then whitespace-separated
// Q / intensity / uncertainty rows.
package asciidata
