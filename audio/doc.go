// SPDX-License-Identifier: EPL-2.0

// Package audio defines the decoder boundary sndrender consumes.
//
// Decoders in formats/* turn an io.Reader into a Source of interleaved
// float32 samples. Sources may additionally implement:
//   - Tagger, exposing container tags such as LOOP_START / LOOP_END / LOOP_BIDI
//   - Seeker, allowing file-backed streams to reposition
//
// # Format Registry
//
// The registry maps format keys to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	src, err := registry.Decode("wav", file)
//
// Keys are case-insensitive.
//
// # Sample Format
//
// Samples are float32 in the range [-1.0, 1.0]; ReadAll drains a source into
// a single slice, which is how short effects are loaded before being handed
// to the engine.
//
// # Error Handling
//
// ReadSamples returns io.EOF when no more data is available:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    if err == io.EOF {
//	        break // Normal end of stream
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // Process n samples from buf
//	}
package audio
