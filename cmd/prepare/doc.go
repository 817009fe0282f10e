// Command prepare encodes one split of a stem dataset into persisted spectrogram chunks.
//
// Tracks are read from <source_dir>/<split>/<track>/mixture.<ext> and <target>.<ext>
// (wav, flac, mp3 or ogg) and written as
//
//	<save_dir>/<split>/mixture/<track>/<i>.npy
//	<save_dir>/<split>/<target>/<track>/<i>.npy
//	<save_dir>/<split>/phase/<track>/<i>.npy
//
// Usage:
//
//	prepare [-config config.yaml] [-split train] [-source dir] [-out dir] [-workers n]
//
// Tracks that cannot be loaded or whose stems are misaligned are reported and skipped.
package main
