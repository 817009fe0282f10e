// Command fromchunk reconstructs the audio of one persisted chunk.
//
// The chunk's log-magnitude (mixture or target) is combined with the mixture phase and
// inverted by overlap-add. Since the phase is stored, no iterative phase estimation is needed.
//
// Usage:
//
//	fromchunk [-config config.yaml] [-kind mixture|target] -track <id> -index <i> <out.wav>
package main
