// Package track supplies the tracks the encoder consumes.
//
// A Track is an identifier plus two channel-major waveforms (mixture and target stem)
// sampled at one rate. Tracks come from a Provider; Dir is a Provider over a directory of
// decoded stems laid out as {root}/{split}/{track}/mixture.{ext} and {target}.{ext}.
// Decoding is dispatched by file extension through a Registry:
//   - wav through faiface/beep
//   - flac through mewkiz/flac
//   - mp3 through hajimehoshi/go-mp3
//   - ogg through jfreymuth/oggvorbis
//
// No resampling is done; the encoder rejects tracks whose rate differs from its configuration.
package track
