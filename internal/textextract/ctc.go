package textextract

import "math"

// decodeGreedy performs CTC greedy decoding over logits shaped [1, T, C]:
// per timestep argmax, collapse repeats, drop blanks (index 0). Returns the
// decoded text and the mean probability of the kept characters.
func decodeGreedy(logits []float32, shape []int64, cs *charset) (string, float64) {
	if len(shape) < 3 {
		return "", 0
	}
	t, c := int(shape[1]), int(shape[2])
	if t <= 0 || c <= 0 || len(logits) < t*c {
		return "", 0
	}

	var text []byte
	var probSum float64
	kept := 0
	prev := -1
	for step := 0; step < t; step++ {
		row := logits[step*c : (step+1)*c]
		idx, _ := argmax(row)
		if idx != 0 && idx != prev {
			if tok := cs.token(idx); tok != "" {
				text = append(text, tok...)
				probSum += softmaxProb(row, idx)
				kept++
			}
		}
		prev = idx
	}
	if kept == 0 {
		return "", 0
	}
	return string(text), probSum / float64(kept)
}

func argmax(v []float32) (int, float32) {
	idx, best := 0, v[0]
	for i, x := range v[1:] {
		if x > best {
			best = x
			idx = i + 1
		}
	}
	return idx, best
}

// softmaxProb returns the softmax probability of v[idx]. Outputs that
// already look like probabilities are passed through.
func softmaxProb(v []float32, idx int) float64 {
	var sum float64
	lo, hi := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if sum > 0.99 && sum < 1.01 && lo >= 0 && hi <= 1 {
		return float64(v[idx])
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - hi))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-hi)) / denom
}
