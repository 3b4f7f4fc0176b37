package track

// findFirstPeak scans the first half of the track for the first sample that
// is climbing, then returns the progress of the highest sample between there
// and the halfway mark. Tracks that never climb in their first half have no
// lift hill and return 0.
func (t *Track) findFirstPeak(cfg Config) float64 {
	n := cfg.PeakSamples
	if n < 2 {
		n = 2
	}
	start := -1
	samples := make([]struct{ progress, height float64 }, n+1)
	for i := 0; i <= n; i++ {
		p := 0.5 * float64(i) / float64(n)
		s := t.Sample(p)
		samples[i].progress = p
		samples[i].height = s.Point.Y()
		if start < 0 && s.Tangent.Y() > cfg.PeakRise {
			start = i
		}
	}
	if start < 0 {
		return 0
	}
	best := start
	for i := start + 1; i <= n; i++ {
		if samples[i].height > samples[best].height {
			best = i
		}
	}
	return samples[best].progress
}
