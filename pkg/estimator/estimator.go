package estimator

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"time"

	"github.com/andrepxx/go-dsp-guitar/circular"
	"github.com/andrepxx/go-dsp-guitar/fft"

	"github.com/metalblueberry/intonation/pkg/tuning"
)

/*
 * Global constants.
 */
const (
	DEFAULT_WINDOW         = 8192
	DEFAULT_LOW_FREQUENCY  = 60.0
	DEFAULT_HIGH_FREQUENCY = 2000.0
	SILENCE_ENERGY         = 1e-9
)

/*
 * Data structure representing an autocorrelation pitch estimator.
 */
type Estimator struct {
	window           int
	lowFrequency     float64
	highFrequency    float64
	mutexBuffer      sync.RWMutex
	buffer           circular.Buffer
	sampleRate       uint32
	mutexAnalyze     sync.Mutex
	fourierTransform fft.FourierTransform
	bufCorrelation   []float64
	bufFFT           []complex128
	now              func() time.Time
}

/*
 * Find the maximum value in a buffer.
 */
func findMaximum(buf []float64) (float64, int) {
	maxVal := math.Inf(-1)
	maxIdx := int(-1)

	/*
	 * Iterate over the buffer and find the maximum value.
	 */
	for idx, value := range buf {

		/*
		 * If we found a value which is greater than any value we
		 * encountered so far, make it the new candidate.
		 */
		if value > maxVal {
			maxVal = value
			maxIdx = idx
		}

	}

	return maxVal, maxIdx
}

/*
 * Returns a sample meaning "nothing reliable was heard".
 */
func (this *Estimator) silence() tuning.Sample {

	s := tuning.Sample{
		Frequency:  tuning.Sentinel,
		Confidence: 0.0,
		Timestamp:  this.now(),
	}

	return s
}

/*
 * Estimate the fundamental frequency of the buffered signal.
 *
 * The confidence is the normalized autocorrelation at the detected period,
 * which is close to one for a periodic signal and close to zero for noise.
 */
func (this *Estimator) Analyze() (tuning.Sample, error) {
	this.mutexAnalyze.Lock()
	defer this.mutexAnalyze.Unlock()
	n := this.window
	twoN := uint64(2 * n)
	fftSize, _ := fft.NextPowerOfTwo(twoN)

	/*
	 * Ensure that correlation buffer is of correct length.
	 */
	if uint64(len(this.bufCorrelation)) != fftSize {
		this.bufCorrelation = make([]float64, fftSize)
	}

	/*
	 * Ensure that FFT buffer is of correct length.
	 */
	if uint64(len(this.bufFFT)) != fftSize {
		this.bufFFT = make([]complex128, fftSize)
	}

	bufCorrelation := this.bufCorrelation
	bufFFT := this.bufFFT
	signalBuffer := bufCorrelation[0:n]
	this.mutexBuffer.RLock()
	sampleRate := this.sampleRate
	err := this.buffer.Retrieve(signalBuffer)
	this.mutexBuffer.RUnlock()

	if err != nil {
		return this.silence(), fmt.Errorf("failed to retrieve contents of circular buffer: %w", err)
	}

	if sampleRate == 0 {
		return this.silence(), nil
	}

	energy := 0.0

	for _, value := range signalBuffer {
		energy += value * value
	}

	/*
	 * Nothing to correlate.
	 */
	if energy/float64(n) < SILENCE_ENERGY {
		return this.silence(), nil
	}

	ft := this.fourierTransform
	fft.ZeroFloat(bufCorrelation[n:fftSize])
	err = ft.RealFourier(bufCorrelation, bufFFT, fft.SCALING_DEFAULT)

	if err != nil {
		return this.silence(), fmt.Errorf("failed to calculate forward FFT: %w", err)
	}

	/*
	 * Multiply each element of the spectrum with its complex conjugate.
	 */
	for i, elem := range bufFFT {
		bufFFT[i] = elem * cmplx.Conj(elem)
	}

	err = ft.RealInverseFourier(bufFFT, bufCorrelation, fft.SCALING_DEFAULT)

	if err != nil {
		return this.silence(), fmt.Errorf("failed to calculate inverse FFT: %w", err)
	}

	zeroLag := bufCorrelation[0]

	if zeroLag <= 0 {
		return this.silence(), nil
	}

	sampleRateFloat := float64(sampleRate)
	lowIdx := int((sampleRateFloat / this.highFrequency) + 0.5)
	highIdx := int((sampleRateFloat / this.lowFrequency) + 0.5)

	/*
	 * Keep one lag of headroom on both sides for the interpolation.
	 */
	if lowIdx < 1 {
		lowIdx = 1
	}

	if highIdx > n-2 {
		highIdx = n - 2
	}

	if lowIdx >= highIdx {
		return this.silence(), nil
	}

	/*
	 * Autocorrelation relative to the signal energy. The window shrinks
	 * with the lag, which makes the first period win over its multiples.
	 */
	normalized := bufCorrelation[0 : highIdx+2]

	for lag := range normalized {
		normalized[lag] /= zeroLag
	}

	unbiased := func(lag int) float64 {
		return normalized[lag] * float64(n) / float64(n-lag)
	}

	/*
	 * Skip the main lobe around lag zero, otherwise short lags win over
	 * the actual period.
	 */
	start := -1

	for lag := 1; lag <= highIdx; lag++ {

		if normalized[lag] < 0 {
			start = lag
			break
		}

	}

	if start < 0 {
		return this.silence(), nil
	}

	if start < lowIdx {
		start = lowIdx
	}

	_, maxIdx := findMaximum(normalized[start : highIdx+1])
	idx := start + maxIdx
	maxVal := unbiased(idx)
	valueLeft := unbiased(idx - 1)
	valueRight := unbiased(idx + 1)
	denominatorDiff := 2.0*maxVal - (valueLeft + valueRight)
	shiftEstimation := 0.0

	if denominatorDiff != 0 {
		shiftEstimation = 0.5 * (valueRight - valueLeft) / denominatorDiff
	}

	/*
	 * Limit shift estimation to plus/minus half a sample.
	 */
	if shiftEstimation < -0.5 {
		shiftEstimation = -0.5
	} else if shiftEstimation > 0.5 {
		shiftEstimation = 0.5
	}

	confidence := math.Max(0.0, math.Min(1.0, maxVal))

	s := tuning.Sample{
		Frequency:  sampleRateFloat / (float64(idx) + shiftEstimation),
		Confidence: confidence,
		Timestamp:  this.now(),
	}

	return s, nil
}

/*
 * Stream samples for later analysis.
 */
func (this *Estimator) Process(samples []float64, sampleRate uint32) {
	this.mutexBuffer.Lock()
	this.buffer.Enqueue(samples...)
	this.sampleRate = sampleRate
	this.mutexBuffer.Unlock()
}

/*
 * Stream samples as delivered by an audio device.
 */
func (this *Estimator) ProcessFloat32(samples []float32, sampleRate float64) {
	buf := make([]float64, len(samples))

	for i, value := range samples {
		buf[i] = float64(value)
	}

	this.Process(buf, uint32(sampleRate))
}

/*
 * Returns the number of samples analyzed at once.
 */
func (this *Estimator) Window() int {
	return this.window
}

/*
 * Creates a pitch estimator looking for fundamentals between lowFrequency
 * and highFrequency over the last window samples.
 */
func Create(window int, lowFrequency float64, highFrequency float64) *Estimator {

	if window < 4 {
		window = DEFAULT_WINDOW
	}

	if lowFrequency <= 0 || highFrequency <= lowFrequency {
		lowFrequency = DEFAULT_LOW_FREQUENCY
		highFrequency = DEFAULT_HIGH_FREQUENCY
	}

	e := Estimator{
		window:           window,
		lowFrequency:     lowFrequency,
		highFrequency:    highFrequency,
		buffer:           circular.CreateBuffer(window),
		fourierTransform: fft.CreateFourierTransform(),
		now:              time.Now,
	}

	return &e
}
