package geo

import "math"

// EarthRadiusKm средний радиус Земли в километрах
const EarthRadiusKm = 6371.0

// Point географическая точка (градусы)
type Point struct {
	Lat float64
	Lng float64
}

// DistanceKm возвращает расстояние по большому кругу между двумя точками (формула гаверсинусов)
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
