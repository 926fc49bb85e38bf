package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"

	"quality-predictor/internal/features"
	"quality-predictor/internal/ml"

	"github.com/rs/zerolog"
)

func main() {
	var (
		scalerPath = flag.String("scaler", "models/scaler_model.json", "Path to scaler artifact")
		modelPath  = flag.String("model", "models/pass_model.json", "Path to classifier artifact (.json or .onnx)")
		metaPath   = flag.String("meta", "", "Path to ONNX metadata (default: model path with .json)")
		libPath    = flag.String("onnx-lib", "", "Path to the onnxruntime shared library")
		steps      = flag.Int("steps", 4, "Grid points per field for the sweep")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	fmt.Println("🧪 Checking prediction artifacts")
	fmt.Println("================================")
	fmt.Printf("📁 Scaler: %s\n", *scalerPath)
	fmt.Printf("📁 Model:  %s\n", *modelPath)

	artifacts, err := ml.LoadArtifacts(ml.ArtifactConfig{
		ScalerPath:        *scalerPath,
		ModelPath:         *modelPath,
		ModelMetadataPath: *metaPath,
		ONNXLibraryPath:   *libPath,
	})
	if err != nil {
		log.Fatalf("❌ Failed to load artifacts: %v", err)
	}
	defer artifacts.Close()

	predictor, err := ml.NewPredictor(artifacts)
	if err != nil {
		log.Fatalf("❌ Failed to create predictor: %v", err)
	}
	ctx := context.Background()

	fmt.Println("\n🔧 Check 1: reference vectors")
	lower, upper := features.Defaults(), features.Defaults()
	for _, s := range features.Specs() {
		lower = set(lower, s.Field, s.Min)
		upper = set(upper, s.Field, s.Max)
	}
	cases := []struct {
		name string
		fv   features.Vector
	}{
		{"Form defaults", features.Defaults()},
		{"All minimums", lower},
		{"All maximums", upper},
	}
	for _, tc := range cases {
		res, err := predictor.Predict(ctx, tc.fv)
		if err != nil {
			fmt.Printf("  ❌ %s: %v\n", tc.name, err)
			continue
		}
		fmt.Printf("  ✅ %s: label=%q outcome=%s\n", tc.name, res.Label, res.Outcome.Text())
	}

	fmt.Println("\n🔧 Check 2: out-of-range input never reaches the artifacts")
	for _, s := range features.Specs() {
		for _, v := range []float64{s.Min - s.Step, s.Max + s.Step, math.NaN()} {
			_, err := predictor.Predict(ctx, set(features.Defaults(), s.Field, v))
			var invalid *features.InvalidInputError
			if errors.As(err, &invalid) {
				fmt.Printf("  ✅ rejected: %v\n", err)
			} else {
				fmt.Printf("  ❌ %s=%g was not rejected (err=%v)\n", s.Key, v, err)
			}
		}
	}

	fmt.Println("\n🔧 Check 3: sweep over the input grid")
	total, passed, unexpected := sweep(ctx, predictor, *steps)
	if total > 0 {
		fmt.Printf("  📊 Pass rate: %.1f%% (%d/%d)\n", float64(passed)/float64(total)*100, passed, total)
	}
	if unexpected > 0 {
		fmt.Printf("  ⚠️  %d predictions returned a label other than Pass or Fail\n", unexpected)
	}

	health := predictor.Health()
	fmt.Printf("\n⏱  Average latency: %.3f ms over %d predictions, %d errors\n",
		health.AverageLatency, health.PredictionCount, health.ErrorCount)
}

func set(fv features.Vector, f features.Field, v float64) features.Vector {
	values := fv.Values()
	values[f] = v
	out, _ := features.FromValues(values)
	return out
}

// sweep predicts every point of an evenly spaced grid spanning each field's
// range.
func sweep(ctx context.Context, p *ml.Predictor, steps int) (total, passed, unexpected int) {
	if steps < 2 {
		steps = 2
	}
	specs := features.Specs()
	idx := make([]int, len(specs))
	for {
		values := make([]float64, len(specs))
		for i, s := range specs {
			values[i] = s.Min + (s.Max-s.Min)*float64(idx[i])/float64(steps-1)
		}
		fv, _ := features.FromValues(values)
		if res, err := p.Predict(ctx, fv); err == nil {
			total++
			if res.Passed() {
				passed++
			}
			if !res.Recognized {
				unexpected++
			}
		}

		i := 0
		for ; i < len(idx); i++ {
			idx[i]++
			if idx[i] < steps {
				break
			}
			idx[i] = 0
		}
		if i == len(idx) {
			return total, passed, unexpected
		}
	}
}
