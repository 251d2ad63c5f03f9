// SPDX-License-Identifier: EPL-2.0

// Package stream plays long-running streamed sounds such as music.
//
// A Stream wraps one engine stream and the channel playing it. Poll must be
// called once per tick; it detects the end of playback, reconnects network
// streams that stalled, starts streams that finished opening and mutes the
// channel while the engine reports buffer starvation.
//
// Three sources are supported: a callback that fills PCM buffers, a decoded
// audio.Source and a network URL. URL streams cannot seek and never loop.
package stream
