package analysis

// FindBands returns the maximal runs of true flags that are at least minRun
// rows long, in index order. A minRun below 1 is treated as 1.
func FindBands(flags []bool, minRun int) []Band {
	if minRun < 1 {
		minRun = 1
	}

	var bands []Band
	i := 0
	for i < len(flags) {
		if !flags[i] {
			i++
			continue
		}
		start := i
		for i < len(flags) && flags[i] {
			i++
		}
		if band := (Band{Start: start, End: i - 1}); band.Len() >= minRun {
			bands = append(bands, band)
		}
	}
	return bands
}

// BandIndex maps each row to the zero-based position of the band containing
// it, or -1 when the row is outside every band.
func BandIndex(n int, bands []Band) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	for k, b := range bands {
		for i := b.Start; i <= b.End && i < n; i++ {
			idx[i] = k
		}
	}
	return idx
}
