package optimize

import (
	"math"
	"testing"
)

type quadraticObjective struct {
	target []float64
}

func (q quadraticObjective) Evaluate(x []float64) float64 {
	sum := 0.0
	for i, v := range x {
		d := v - q.target[i]
		sum += d * d
	}
	return sum
}

func TestGonumMinimizerFindsQuadraticMinimum(t *testing.T) {
	obj := quadraticObjective{target: []float64{1.5, -2.0}}
	m := GonumMinimizer{}
	xMin, fMin, err := m.Minimize(obj, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if fMin > 1e-4 {
		t.Fatalf("fMin = %v, want near 0", fMin)
	}
	for i, want := range obj.target {
		if math.Abs(xMin[i]-want) > 1e-2 {
			t.Fatalf("xMin[%d] = %v, want near %v", i, xMin[i], want)
		}
	}
}
