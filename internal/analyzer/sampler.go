package analyzer

import (
	"context"
	"image"
	"runtime"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"go-realtone/internal/realtone"
	"go-realtone/pkg/validation"
)

// SampleMetrics summarizes one sampled region
type SampleMetrics struct {
	Average     realtone.SampledColor // mean of skin pixels, 0..255
	SkinPixels  int
	TotalPixels int
	Coverage    float64
	Luminance   float64 // mean Rec.601 luma of all pixels, 0..1
	Sharpness   float64 // Laplacian variance of the sampled thumbnail
	Width       int     // region size before downsizing
	Height      int
}

// QualityMetrics converts the sample for the quality validator
func (m SampleMetrics) QualityMetrics() validation.SampleQualityMetrics {
	return validation.SampleQualityMetrics{
		Width:          m.Width,
		Height:         m.Height,
		LaplacianVar:   m.Sharpness,
		AvgLuminance:   m.Luminance,
		SkinCoverage:   m.Coverage,
		ChannelBalance: [3]float64{m.Average.R, m.Average.G, m.Average.B},
	}
}

// SkinSampler averages the skin-colored pixels of an image region
type SkinSampler struct {
	opts SamplerOptions
}

// NewSkinSampler creates a sampler with the given options
func NewSkinSampler(opts SamplerOptions) *SkinSampler {
	return &SkinSampler{opts: opts}
}

// Options returns the sampler configuration
func (s *SkinSampler) Options() SamplerOptions {
	return s.opts
}

type stripResult struct {
	r, g, b []float64
	luma    []float64
}

// Sample crops rect out of img, downsizes it and averages the pixels that
// pass the skin mask. The region is clipped to the image; an empty region
// yields zero metrics.
func (s *SkinSampler) Sample(ctx context.Context, img image.Image, rect image.Rectangle) (SampleMetrics, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return SampleMetrics{}, nil
	}

	src := imaging.Crop(img, rect)
	if limit := s.opts.MaxSampleDimension; limit > 0 && (rect.Dx() > limit || rect.Dy() > limit) {
		src = imaging.Fit(src, limit, limit, imaging.Box)
	}

	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	numWorkers := s.opts.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	// Process the thumbnail in horizontal strips for better cache locality
	results := make([]stripResult, numWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		g.Go(func() error {
			res := &results[i]
			for y := startY; y < endY; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row := src.Pix[y*src.Stride : y*src.Stride+width*4]
				for x := 0; x < width; x++ {
					px := row[x*4 : x*4+4]
					if px[3] == 0 {
						continue
					}
					c := colorful.Color{
						R: float64(px[0]) / 255,
						G: float64(px[1]) / 255,
						B: float64(px[2]) / 255,
					}
					res.luma = append(res.luma, 0.299*c.R+0.587*c.G+0.114*c.B)
					if h, sat, v := c.Hsv(); s.opts.IsSkin(h, sat, v) {
						res.r = append(res.r, float64(px[0]))
						res.g = append(res.g, float64(px[1]))
						res.b = append(res.b, float64(px[2]))
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SampleMetrics{}, err
	}

	var r, gr, b, luma []float64
	for _, res := range results {
		r = append(r, res.r...)
		gr = append(gr, res.g...)
		b = append(b, res.b...)
		luma = append(luma, res.luma...)
	}

	metrics := SampleMetrics{
		SkinPixels:  len(r),
		TotalPixels: len(luma),
		Sharpness:   laplacianVariance(imaging.Grayscale(src)),
		Width:       rect.Dx(),
		Height:      rect.Dy(),
	}
	if len(luma) > 0 {
		metrics.Luminance = stat.Mean(luma, nil)
		metrics.Coverage = float64(len(r)) / float64(len(luma))
	}
	if len(r) > 0 {
		metrics.Average = realtone.SampledColor{
			R: stat.Mean(r, nil),
			G: stat.Mean(gr, nil),
			B: stat.Mean(b, nil),
		}
	}
	return metrics, nil
}

// laplacianVariance applies the [0 1 0; 1 -4 1; 0 1 0] kernel to the red
// channel of a grayscale image and returns the variance of the response.
func laplacianVariance(gray *image.NRGBA) float64 {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	if width < 3 || height < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x*4])
	}
	data := make([]float64, 0, (width-2)*(height-2))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			data = append(data, -4*at(x, y)+at(x, y-1)+at(x, y+1)+at(x-1, y)+at(x+1, y))
		}
	}
	return stat.Variance(data, nil)
}
