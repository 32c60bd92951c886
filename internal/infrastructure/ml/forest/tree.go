package forest

import (
	"math/rand/v2"
	"slices"
)

const leafFeature = -1

// node is one entry of a flattened decision tree. Leaves carry the fraction of
// positive training samples that reached them.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	positive  float64
}

// tree is a CART classifier stored as a flat slice; index 0 is the root.
type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.feature == leafFeature {
			return n.positive
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// treeBuilder grows a single tree over a bootstrap sample.
type treeBuilder struct {
	x               [][]float64
	y               []int
	maxFeatures     int
	minSamplesSplit int
	rng             *rand.Rand
	nodes           []node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(samples []int) tree {
	b.nodes = nil
	b.grow(samples)
	return tree{nodes: slices.Clip(b.nodes)}
}

// grow appends the subtree for samples and returns its root index.
func (b *treeBuilder) grow(samples []int) int {
	idx := len(b.nodes)
	positives := b.countPositive(samples)
	b.nodes = append(b.nodes, node{
		feature:  leafFeature,
		positive: float64(positives) / float64(len(samples)),
	})

	if len(samples) < b.minSamplesSplit || positives == 0 || positives == len(samples) {
		return idx
	}

	best, ok := b.bestSplit(samples)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][best.feature] <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	l := b.grow(left)
	r := b.grow(right)
	b.nodes[idx] = node{feature: best.feature, threshold: best.threshold, left: l, right: r}
	return idx
}

// bestSplit inspects at least maxFeatures randomly ordered features and keeps
// going until a feature with a usable threshold is found.
func (b *treeBuilder) bestSplit(samples []int) (split, bool) {
	best := split{impurity: 2}
	found := false
	sorted := slices.Clone(samples)

	for visited, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures && found {
			break
		}

		slices.SortFunc(sorted, func(a, c int) int {
			switch {
			case b.x[a][f] < b.x[c][f]:
				return -1
			case b.x[a][f] > b.x[c][f]:
				return 1
			}
			return 0
		})

		total := len(sorted)
		totalPos := b.countPositive(sorted)
		leftPos := 0
		for i := 1; i < total; i++ {
			leftPos += b.y[sorted[i-1]]
			lo, hi := b.x[sorted[i-1]][f], b.x[sorted[i]][f]
			if lo == hi {
				continue
			}
			impurity := weightedGini(i, leftPos, total-i, totalPos-leftPos)
			if impurity < best.impurity {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, impurity: impurity}
				found = true
			}
		}
	}

	return best, found
}

func (b *treeBuilder) countPositive(samples []int) int {
	n := 0
	for _, s := range samples {
		n += b.y[s]
	}
	return n
}

// weightedGini is the sample-weighted Gini impurity of a binary partition.
func weightedGini(nLeft, posLeft, nRight, posRight int) float64 {
	total := float64(nLeft + nRight)
	return float64(nLeft)/total*gini(nLeft, posLeft) + float64(nRight)/total*gini(nRight, posRight)
}

func gini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
