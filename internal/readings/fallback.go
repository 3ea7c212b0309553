package readings

import (
	"math/rand"
	"time"

	"github.com/aurahome/aura/pkg/models"
)

// fallbackWeather synthesizes time-of-day shaped weather readings for use
// when the live provider is unavailable.
func fallbackWeather(now time.Time) map[models.ReadingKind]float64 {
	hour := now.Hour()
	var temp float64
	switch {
	case hour >= 12 && hour <= 17: // afternoon heat
		temp = 92 + rand.Float64()*6
	case hour >= 7 && hour <= 11:
		temp = 80 + rand.Float64()*8
	case hour >= 18 && hour <= 21:
		temp = 85 + rand.Float64()*5
	default: // overnight
		temp = 74 + rand.Float64()*4
	}
	humidity := 40 + rand.Float64()*20
	return map[models.ReadingKind]float64{
		models.ReadingTemperatureF: temp,
		models.ReadingHumidityPct:  humidity,
		models.ReadingWindSpeedMPH: 5 + rand.Float64()*10,
		models.ReadingHeatIndexF:   HeatIndexF(temp, humidity),
	}
}

// fallbackGrid synthesizes nominal ERCOT-like demand by time of day.
func fallbackGrid(now time.Time) map[models.ReadingKind]float64 {
	hour := now.Hour()
	var demand float64
	switch {
	case hour >= 17 && hour <= 21: // evening peak
		demand = 75000 + rand.Float64()*8000
	case hour >= 6 && hour <= 9: // morning peak
		demand = 70000 + rand.Float64()*5000
	case hour >= 22 || hour <= 5: // night low
		demand = 45000 + rand.Float64()*3000
	default:
		demand = 60000 + rand.Float64()*4000
	}
	return map[models.ReadingKind]float64{
		models.ReadingGridDemandMW:     demand,
		models.ReadingGridFrequencyHz:  59.97 + rand.Float64()*0.06,
		models.ReadingReserveMarginPct: 8 + rand.Float64()*6,
	}
}
