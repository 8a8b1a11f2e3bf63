// Package vision provides template matching and text extraction over
// captured frames.
//
// # Purpose
//
// Modules use this package to answer "is this thing on screen, and
// where" without touching pixels themselves. The service subscribes to
// the frame stream, caches the latest frame, and matches template images
// against it using normalized cross-correlation on grayscale data.
//
// # Usage
//
//	vis := vision.New(cfg.Vision)
//	vis.Attach(str)
//	defer vis.Detach()
//
//	if m, ok := vis.FindTemplate(frame.Image, tplImage, region, 0); ok {
//	    // m.Center is the point to act on, m.Score the confidence.
//	}
//
// Text extraction is optional and requires an OCR collaborator:
//
//	vis.SetTextReader(reader)
//	text, err := vis.ReadRegion(ctx, region)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Matching operates on the
// caller's images and immutable cached frames, so no locks are held
// during the correlation scan.
//
// # Performance
//
// Matching is an exhaustive scan; cost is proportional to search area
// times template area. Pass a bounded region wherever the target's
// location is roughly known.
package vision
