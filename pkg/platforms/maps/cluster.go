package maps

import (
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance is the great-circle distance between two points, in km.
func Distance(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Cluster finds the densest groups of reviews within radiusKm of one review.
// It returns the share of reviews in such a group, as a percentage, and
// the averaged center of every group reaching that size.
func Cluster(reviews []Review, radiusKm float64) (float64, []Point) {
	if len(reviews) == 0 {
		return 0, nil
	}

	best := 0
	groups := map[string][]int{}
	var order []string

	for _, r := range reviews {
		var members []int
		for j, other := range reviews {
			if Distance(Point{r.Lat, r.Lng}, Point{other.Lat, other.Lng}) <= radiusKm {
				members = append(members, j)
			}
		}
		if len(members) < best {
			continue
		}
		if len(members) > best {
			best = len(members)
			groups = map[string][]int{}
			order = nil
		}
		key := groupKey(members)
		if _, ok := groups[key]; !ok {
			groups[key] = members
			order = append(order, key)
		}
	}

	centers := make([]Point, 0, len(order))
	for _, key := range order {
		centers = append(centers, average(reviews, groups[key]))
	}
	return float64(best) / float64(len(reviews)) * 100, centers
}

func groupKey(members []int) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func average(reviews []Review, members []int) Point {
	var p Point
	for _, m := range members {
		p.Lat += reviews[m].Lat
		p.Lng += reviews[m].Lng
	}
	n := float64(len(members))
	return Point{Lat: p.Lat / n, Lng: p.Lng / n}
}
