// Package stream implements the screenshot stream at the centre of Vigil Core:
// a fixed-rate capture loop that fans each frame out to subscribed consumers.
//
// # Purpose
//
// The stream owns the only capture loop in the process. It samples a Source
// at a target rate, wraps each image in an immutable Frame with a sequence
// number that only moves forward, and delivers it to every subscriber
// synchronously, in subscription order, before scheduling the next capture.
//
// # Scheduling
//
// Capture runs on a fixed tick grid. A cycle that overruns its period causes
// the missed ticks to be skipped rather than queued: consumers always see
// the freshest state of the source, and every skipped tick is counted in
// Metrics.DroppedFrames. There is never more than one capture in flight.
//
// # Usage
//
//	st := stream.New(source, stream.Config{
//	    HandlerBudget: 50 * time.Millisecond,
//	    Retry:         stream.RetryConfig{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond},
//	})
//	st.SetLogger(logger)
//
//	token := st.Subscribe("tracker", func(f *stream.Frame) { ... })
//	if err := st.Start(ctx, 30); err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Stop()
//	st.Unsubscribe(token)
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Handlers run on the
// capture loop goroutine; Unsubscribe blocks until any in-flight delivery
// to that handler has returned, so it must not be called from the handler
// it removes.
//
// # Error Handling
//
// Transient capture failures are retried with exponential backoff inside
// the owning tick. Exhausting the retry budget is the one fatal condition:
// the loop halts, Done() is closed, and Err() reports ErrCaptureExhausted
// wrapping the final cause.
package stream
