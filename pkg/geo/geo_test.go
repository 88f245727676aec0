package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 55.9533, Lon: -3.1883},
			p2:   Point{Lat: 55.9533, Lon: -3.1883},
			want: 0,
		},
		{
			name: "Edinburgh to Glasgow",
			p1:   Point{Lat: 55.9533, Lon: -3.1883},
			p2:   Point{Lat: 55.8642, Lon: -4.2518},
			want: 67000, // Approx 67km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111195, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
			if tt.want == 0 && got != 0 {
				t.Errorf("Distance() = %v, want exactly 0", got)
			}
		})
	}
}

func TestDestinationPointRoundTrip(t *testing.T) {
	start := Point{Lat: 55.9533, Lon: -3.1883}

	for _, dist := range []float64{200, 1500, 20000} {
		dest := DestinationPoint(start, dist, 90)
		got := Distance(start, dest)
		if math.Abs(got-dist) > dist*0.005 {
			t.Errorf("DestinationPoint(%v m) landed %v m away", dist, got)
		}
	}
}

func TestBearing(t *testing.T) {
	p := Point{Lat: 0, Lon: 0}
	east := Point{Lat: 0, Lon: 1}
	if b := Bearing(p, east); math.Abs(b-90) > 0.1 {
		t.Errorf("Bearing to east = %v, want 90", b)
	}
}
