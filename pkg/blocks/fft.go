package blocks

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// FFTMagConfig configures an FFTMag.
type FFTMagConfig struct {
	FFTSize int `mapstructure:"fft_size"`
}

// FFTMag collects complex samples into frames of FFTSize and emits the
// magnitude spectrum of each frame as float samples. A trailing partial
// frame is discarded when the stream ends.
type FFTMag struct {
	graph.StreamIO
	fftSize int
}

// NewFFTMag creates a magnitude-spectrum block.
func NewFFTMag(cfg FFTMagConfig) (*FFTMag, error) {
	if cfg.FFTSize <= 0 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("fft_mag: fft_size must be a positive power of two")
	}
	return &FFTMag{
		StreamIO: graph.NewStreamIO([]int{sample.Complex.Size()}, []int{sample.Float.Size()}),
		fftSize:  cfg.FFTSize,
	}, nil
}

func (b *FFTMag) Run(ctx context.Context) error {
	defer b.CloseOuts()

	fft := fourier.NewCmplxFFT(b.fftSize)
	frame := make([]complex128, 0, b.fftSize)

	for chunk := range b.In[0] {
		for _, v := range sample.Complex64s(chunk) {
			frame = append(frame, complex128(v))
			if len(frame) < b.fftSize {
				continue
			}

			coeffs := fft.Coefficients(nil, frame)
			mags := make([]float32, b.fftSize)
			for i, c := range coeffs {
				mags[i] = float32(math.Hypot(real(c), imag(c)))
			}
			out := make([]byte, 4*b.fftSize)
			sample.PutFloat32(out, mags)
			if err := graph.Send(ctx, b.Out[0], out); err != nil {
				return err
			}
			frame = frame[:0]
		}
	}
	return nil
}
