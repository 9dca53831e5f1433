// Package texblend composites weighted texture layers (normal maps or any RGB rasters of the same
// format) into a single image.
//
// A Task holds an ordered list of layers. Each layer carries a weight, a blend mode and an enabled
// flag. Blend resolves the canvas from the first enabled layer, stretches mismatched layers to it,
// folds every enabled layer into a floating point accumulator and normalizes the result by the
// total applied weight. Decoding and encoding files is left to the caller.
package texblend
