package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/oscillator"
)

// SweepPoint holds the distinct values a component visited for one
// parameter value.
type SweepPoint struct {
	Param  float64   `json:"param"`
	Values []float64 `json:"values"`
}

// SweepConfig describes a parameter sweep over a single oscillator.
type SweepConfig struct {
	Param     string
	Min, Max  float64
	Steps     int
	Dimension int
	Dt        float64
	Transient int // ticks discarded before recording
	Record    int // ticks recorded
}

// Sweep varies one parameter of base across [Min, Max] and records the
// distinct values (quantised to 1e-3) the chosen component takes once the
// transient has passed.
func Sweep(base dynamo.Params, cfg SweepConfig) ([]SweepPoint, error) {
	if cfg.Dimension < 0 || cfg.Dimension > 3 {
		return nil, fmt.Errorf("dimension %d out of range", cfg.Dimension)
	}
	steps := cfg.Steps
	if steps <= 1 {
		steps = 2
	}
	stepSize := (cfg.Max - cfg.Min) / float64(steps-1)

	results := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		value := cfg.Min + float64(i)*stepSize
		params, err := base.Set(cfg.Param, value)
		if err != nil {
			return nil, err
		}

		o := oscillator.New("sweep", params)
		for t := 0; t < cfg.Transient; t++ {
			o.Update(cfg.Dt)
		}

		values := make([]float64, 0, 100)
		seen := make(map[int]bool)
		for t := 0; t < cfg.Record; t++ {
			o.Update(cfg.Dt)
			v := o.State().Component(cfg.Dimension)
			key := int(v * 1000)
			if !seen[key] {
				seen[key] = true
				values = append(values, v)
			}
		}

		results = append(results, SweepPoint{Param: value, Values: values})
	}
	return results, nil
}

// SweepToASCII plots parameter on the x axis and visited values on y.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	found := false
	for _, p := range data {
		for _, v := range p.Values {
			if !found {
				minVal, maxVal = v, v
				found = true
				continue
			}
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if !found {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return renderCanvas(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func renderCanvas(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
