package engine_test

import (
	"fmt"
	"math"
	"strings"

	"github.com/cilviademo/btz-sonic-alchemy-sub000/engine"
)

func ExampleEngine() {
	e, err := engine.New(engine.NewContext(), engine.DefaultConfig())
	if err != nil {
		panic(err)
	}

	report := e.Prepare(48000, 512, 2)

	p := engine.DefaultParams()
	p.CeilingDB = -0.5
	p.SubharmonicAmount = 0.2
	e.SetParams(p)

	block := [][]float32{make([]float32, 512), make([]float32, 512)}
	e.Process(block)

	fmt.Println(strings.Join(e.StageNames(), " -> "))
	fmt.Println("oversampling:", report.OversampleFactor, "limiter:", report.TruePeak)
	fmt.Println("silence in, silence out:", math.Abs(float64(block[0][511])) < 1e-6)
	// Output:
	// input -> saturation -> subharmonic -> glue -> limiter -> output
	// oversampling: 2 limiter: true-peak
	// silence in, silence out: true
}
