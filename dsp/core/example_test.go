package core_test

import (
	"fmt"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/dsp/core"
)

func ExampleProcessorConfig_Clamp() {
	cfg, adj := core.ApplyProcessorOptions(
		core.WithSampleRate(1_000_000),
		core.WithBlockSize(256),
		core.WithChannels(6),
	).Clamp()

	fmt.Printf("sampleRate=%.0f blockSize=%d channels=%d\n", cfg.SampleRate, cfg.BlockSize, cfg.Channels)

	for _, a := range adj {
		fmt.Println(a)
	}

	// Output:
	// sampleRate=384000 blockSize=256 channels=2
	// sample_rate 1e+06 -> 384000
	// channels 6 -> 2
}
