package embedding

import "fmt"

// Source names a centroid collection inside MathData.
type Source string

const (
	SourceGroupClusters Source = "group-clusters"
	SourceBaseClusters  Source = "base-clusters"
)

// Sources lists the recognized centroid collections.
func Sources() []Source {
	return []Source{SourceGroupClusters, SourceBaseClusters}
}

// GroupCluster is one group centroid.
type GroupCluster struct {
	ID      int       `json:"id"`
	Center  []float64 `json:"center"`
	Members []int     `json:"members,omitempty"`
}

// BaseClusters stores base-cluster centroids column-wise.
type BaseClusters struct {
	ID      []int     `json:"id,omitempty"`
	X       []float64 `json:"x"`
	Y       []float64 `json:"y"`
	Count   []int     `json:"count,omitempty"`
	Members [][]int   `json:"members,omitempty"`
}

type centroidOptions struct {
	flipX bool
	flipY bool
}

// CentroidOption configures CorrectCentroids.
type CentroidOption func(*centroidOptions)

// WithFlipX sets whether the x axis is negated. Defaults to true.
func WithFlipX(flip bool) CentroidOption {
	return func(o *centroidOptions) { o.flipX = flip }
}

// WithFlipY sets whether the y axis is negated. Defaults to true.
func WithFlipY(flip bool) CentroidOption {
	return func(o *centroidOptions) { o.flipY = flip }
}

// ParseSource validates a source name. The empty string resolves to
// SourceGroupClusters.
func ParseSource(s string) (Source, error) {
	if s == "" {
		return SourceGroupClusters, nil
	}
	for _, known := range Sources() {
		if Source(s) == known {
			return known, nil
		}
	}
	return "", &UnknownSourceError{Source: s}
}

// CorrectCentroids reads the centroids of source from data and negates the
// x and/or y axis, undoing the arbitrary sign of the principal components.
// The result is a new slice in source order.
func CorrectCentroids(data MathData, source Source, opts ...CentroidOption) ([][2]float64, error) {
	o := centroidOptions{flipX: true, flipY: true}
	for _, opt := range opts {
		opt(&o)
	}

	var points [][2]float64
	switch source {
	case SourceGroupClusters:
		points = make([][2]float64, 0, len(data.GroupClusters))
		for i, g := range data.GroupClusters {
			if len(g.Center) != 2 {
				return nil, fmt.Errorf("%w: group cluster %d has %d coordinates", ErrMalformedCentroids, i, len(g.Center))
			}
			points = append(points, [2]float64{g.Center[0], g.Center[1]})
		}
	case SourceBaseClusters:
		if len(data.BaseClusters.X) != len(data.BaseClusters.Y) {
			return nil, fmt.Errorf("%w: base-clusters x has %d entries, y has %d", ErrMalformedCentroids, len(data.BaseClusters.X), len(data.BaseClusters.Y))
		}
		points = make([][2]float64, 0, len(data.BaseClusters.X))
		for i := range data.BaseClusters.X {
			points = append(points, [2]float64{data.BaseClusters.X[i], data.BaseClusters.Y[i]})
		}
	default:
		return nil, &UnknownSourceError{Source: string(source)}
	}

	for i := range points {
		if o.flipX {
			points[i][0] = -points[i][0]
		}
		if o.flipY {
			points[i][1] = -points[i][1]
		}
	}
	return points, nil
}
