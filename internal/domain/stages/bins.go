package stages

// Unclassifiable counts null values and values outside every bin.
const Unclassifiable = "Unclassifiable"

// Binning assigns values to right-inclusive intervals (edges[i], edges[i+1]].
type Binning struct {
	Edges  []float64
	Labels []string
}

// PHQ9Bins are the clinical PHQ-9 severity bands.
func PHQ9Bins() Binning {
	return Binning{
		Edges:  []float64{-1, 4, 9, 14, 19, 27},
		Labels: []string{"Minimal", "Mild", "Moderate", "Mod-Severe", "Severe"},
	}
}

// GAD7Bins are the clinical GAD-7 severity bands.
func GAD7Bins() Binning {
	return Binning{
		Edges:  []float64{-1, 4, 9, 14, 21},
		Labels: []string{"Minimal", "Mild", "Moderate", "Severe"},
	}
}

// Label returns the bin label for v, or Unclassifiable.
func (b Binning) Label(v *float64) string {
	if v == nil {
		return Unclassifiable
	}
	for i := 0; i+1 < len(b.Edges) && i < len(b.Labels); i++ {
		if *v > b.Edges[i] && *v <= b.Edges[i+1] {
			return b.Labels[i]
		}
	}
	return Unclassifiable
}

// Empty returns a distribution with every label at zero.
func (b Binning) Empty() map[string]int {
	out := make(map[string]int, len(b.Labels)+1)
	for _, l := range b.Labels {
		out[l] = 0
	}
	out[Unclassifiable] = 0
	return out
}

// Count bins every value. All labels are present in the result.
func (b Binning) Count(values []*float64) map[string]int {
	out := b.Empty()
	for _, v := range values {
		out[b.Label(v)]++
	}
	return out
}
