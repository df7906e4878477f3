package core

import "github.com/spaghettifunk/sinapsi/engine/containers"

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

var metricsStorage = containers.NewStaticStorage(func() MetricsState {
	return MetricsState{
		MStimes: [AVG_COUNT]float64{0},
	}
})

func MetricsInitialize() error {
	metricsStorage.Get()
	return nil
}

func MetricsUpdate(frame_elapsed_time float64) {
	metricsState := metricsStorage.Get()

	// Calculate frame ms average
	frame_ms := (frame_elapsed_time * 1000.0)
	metricsState.MStimes[metricsState.FrameAVGCounter] = frame_ms
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += metricsState.MStimes[i]
		}
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frame_ms
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	// Count all Frames.
	metricsState.Frames++
}

func MetricsFPS() float64 {
	return metricsStorage.Get().FPS
}

func MetricsFrameTime() float64 {
	return metricsStorage.Get().MSavg
}

func MetricsFrame() (float64, float64) {
	metricsState := metricsStorage.Get()
	return metricsState.FPS, metricsState.MSavg
}
