// Package spectral provides the short-time Fourier analysis used to turn waveform chunks
// into log-magnitude and phase planes, and the overlap-add synthesis that turns them back.
//
// Framing is centered: each channel is zero-padded by n_fft/2 samples on both sides, so a
// chunk of n samples yields 1 + n/hop_length frames of n_fft/2 + 1 one-sided bins. It supports:
//   - Per-channel complex spectrograms computed with a periodic Hann window
//   - log1p magnitude compression and phase in (-π, π]
//   - Reconstruction of multichannel audio from a magnitude/phase pair
package spectral
