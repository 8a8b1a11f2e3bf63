package vision

import (
	"image"
	"math"
	"sort"
)

// Match describes where a template was found in an image.
type Match struct {
	// Bounds is the matched area in the searched image's coordinates.
	Bounds image.Rectangle

	// Center is the midpoint of Bounds, convenient for pointer targeting.
	Center image.Point

	// Score is the normalized correlation score in [-1, 1]. 1.0 is a
	// pixel-perfect match.
	Score float64
}

// FindTemplate locates tpl inside img using normalized cross-correlation
// over grayscale intensities. Correlation is computed zero-mean, so the
// score is insensitive to uniform brightness shifts between the template
// and the frame.
//
// A nil img searches the latest cached frame. The search is restricted to
// region, clamped to the image bounds; an empty region searches the whole
// image. A threshold <= 0 uses the configured default.
//
// The scan is exhaustive: cost grows with search area times template
// area, so callers should pass the tightest region they can.
func (s *Service) FindTemplate(img image.Image, tpl image.Image, region image.Rectangle, threshold float64) (Match, bool) {
	if threshold <= 0 {
		threshold = s.threshold
	}
	if img == nil {
		frame := s.Frame()
		if frame == nil || frame.Image == nil {
			return Match{}, false
		}
		img = frame.Image
	}
	if tpl == nil {
		return Match{}, false
	}
	return bestMatch(img, tpl, region, threshold)
}

// MatchState matches every named template against img and returns the
// name and match of the best-scoring one above the threshold default.
// Candidates are evaluated in name order so equal scores resolve
// deterministically. Returns false when nothing scores high enough.
func (s *Service) MatchState(img image.Image, states map[string]image.Image) (string, Match, bool) {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		bestName string
		best     Match
		found    bool
	)
	for _, name := range names {
		m, ok := s.FindTemplate(img, states[name], image.Rectangle{}, 0)
		if ok && (!found || m.Score > best.Score) {
			bestName = name
			best = m
			found = true
		}
	}
	return bestName, best, found
}

// bestMatch slides tpl over every offset inside the search region and
// keeps the highest-scoring placement.
//
// The zero-mean correlation at each offset is computed from running sums:
//
//	score = (sum(T*I) - n*meanT*meanI) / (normT * normI)
//
// where normX = sqrt(sum(X^2) - n*meanX^2). Template statistics are
// hoisted out of the scan loop.
func bestMatch(img image.Image, tpl image.Image, region image.Rectangle, threshold float64) (Match, bool) {
	search := clampRegion(region, img.Bounds())
	tb := tpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	if tw == 0 || th == 0 || search.Dx() < tw || search.Dy() < th {
		return Match{}, false
	}

	window := luminance(img, search)
	kernel := luminance(tpl, tb)

	n := float64(tw * th)
	var tSum, tSumSq float64
	for _, v := range kernel {
		tSum += v
		tSumSq += v * v
	}
	tMean := tSum / n
	tVar := tSumSq - n*tMean*tMean
	if tVar <= 0 {
		// A flat template correlates equally well everywhere.
		return Match{}, false
	}
	tNorm := math.Sqrt(tVar)

	sw := search.Dx()
	best := Match{Score: math.Inf(-1)}
	for y := 0; y <= search.Dy()-th; y++ {
		for x := 0; x <= sw-tw; x++ {
			var iSum, iSumSq, cross float64
			for ty := 0; ty < th; ty++ {
				wRow := (y+ty)*sw + x
				kRow := ty * tw
				for tx := 0; tx < tw; tx++ {
					iv := window[wRow+tx]
					iSum += iv
					iSumSq += iv * iv
					cross += iv * kernel[kRow+tx]
				}
			}

			iMean := iSum / n
			iVar := iSumSq - n*iMean*iMean
			if iVar <= 0 {
				// Flat window, no signal to correlate against.
				continue
			}

			score := (cross - n*tMean*iMean) / (tNorm * math.Sqrt(iVar))
			if score > best.Score {
				best.Score = score
				best.Bounds = image.Rect(
					search.Min.X+x,
					search.Min.Y+y,
					search.Min.X+x+tw,
					search.Min.Y+y+th,
				)
			}
		}
	}

	if best.Score < threshold {
		return Match{}, false
	}
	best.Center = image.Pt(best.Bounds.Min.X+tw/2, best.Bounds.Min.Y+th/2)
	return best, true
}

// luminance converts the pixels of rect into a row-major grayscale buffer
// in the 0..255 range. *image.RGBA gets a direct pixel walk since that is
// what the stream produces; everything else goes through the generic
// color interface.
func luminance(img image.Image, rect image.Rectangle) []float64 {
	out := make([]float64, rect.Dx()*rect.Dy())

	if rgba, ok := img.(*image.RGBA); ok {
		i := 0
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			offset := rgba.PixOffset(rect.Min.X, y)
			for x := 0; x < rect.Dx(); x++ {
				p := rgba.Pix[offset+x*4 : offset+x*4+3 : offset+x*4+3]
				out[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
				i++
			}
		}
		return out
	}

	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			i++
		}
	}
	return out
}
