// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats. Each normaliser knows how to extract
// text from a file of one format tag.
//
// Normalisers are registered with a Registry at startup; Defaults returns
// one populated with every built-in normaliser.
package normalisers
