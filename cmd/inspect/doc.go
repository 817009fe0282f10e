// Command inspect opens an encoded split and reports what the dataset sees.
//
// It prints the number of discovered samples, the shapes of one sample, optionally
// renders its mixture as a PNG image and fits per-frequency normalisation statistics.
//
// Usage:
//
//	inspect [-config config.yaml] [-index i] [-png out.png] [-scaler n]
package main
