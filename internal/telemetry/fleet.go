package telemetry

import (
	"time"

	"sensorwatch/internal/models"
)

// DefaultFleet returns the stock sensor fleet used when no fleet is
// configured. IDs are stable; the count is fixed for the engine's lifetime.
func DefaultFleet(now time.Time) []models.SensorReading {
	defs := []struct {
		id, name, location string
		temp, humidity     float64
		battery            int
		signal             float64
	}{
		{"temp_001", "Living Room", "Living Room", 22.5, 45, 85, 92},
		{"temp_002", "Bedroom", "Bedroom", 21.8, 42, 78, 88},
		{"temp_003", "Kitchen", "Kitchen", 24.2, 38, 92, 85},
		{"temp_004", "Basement", "Basement", 18.5, 65, 73, 75},
		{"temp_005", "Attic", "Attic", 28.3, 35, 81, 68},
		{"temp_006", "Barn", "Barn", 16.2, 72, 89, 82},
		{"temp_007", "Greenhouse", "Greenhouse", 26.8, 78, 94, 91},
		{"temp_008", "Chicken Coop", "Chicken Coop", 19.4, 58, 67, 79},
		{"temp_009", "Feed Storage", "Feed Storage", 15.7, 48, 86, 84},
		{"temp_010", "Car Interior", "Car", 32.1, 25, 91, 88},
		{"temp_011", "Truck Cabin", "Truck", 29.5, 30, 76, 85},
		{"temp_012", "RV Interior", "RV", 23.8, 41, 88, 72},
		{"temp_013", "Garden Shed", "Garden Shed", 20.3, 62, 79, 77},
		{"temp_014", "Pool House", "Pool House", 25.6, 68, 83, 89},
		{"temp_015", "Garage", "Garage", 17.9, 52, 71, 86},
		{"temp_016", "Workshop", "Workshop", 21.4, 44, 90, 93},
		{"temp_017", "Warehouse", "Warehouse", 19.8, 39, 85, 81},
		{"temp_018", "Office", "Office", 22.1, 43, 87, 94},
	}

	fleet := make([]models.SensorReading, 0, len(defs))
	for _, s := range defs {
		fleet = append(fleet, models.SensorReading{
			ID:          s.id,
			Name:        s.name,
			Location:    s.location,
			Temperature: s.temp,
			Humidity:    s.humidity,
			Battery:     s.battery,
			Signal:      s.signal,
			LastSeen:    now,
			Online:      true,
		})
	}
	return fleet
}

// DefaultSecurityFleet returns the stock security device fleet.
func DefaultSecurityFleet(now time.Time) []models.SecurityDevice {
	defs := []struct {
		id, name string
		typ      models.DeviceType
		zone     string
		battery  int
		signal   float64
	}{
		{"door_001", "Front Door", models.DeviceDoor, "Entry", 92, 95},
		{"window_001", "Living Room Window", models.DeviceWindow, "Living Room", 88, 90},
		{"motion_001", "Hallway Motion", models.DeviceMotion, "Hallway", 76, 82},
		{"door_002", "Barn Door", models.DeviceDoor, "Barn", 84, 78},
		{"motion_002", "Greenhouse Motion", models.DeviceMotion, "Greenhouse", 91, 87},
		{"door_003", "Feed Storage Door", models.DeviceDoor, "Feed Storage", 79, 83},
		{"motion_003", "Car Motion Sensor", models.DeviceMotion, "Car", 88, 85},
		{"glass_001", "Truck Window Sensor", models.DeviceGlass, "Truck", 73, 79},
		{"door_004", "Garage Door", models.DeviceDoor, "Garage", 86, 91},
		{"motion_004", "Workshop Motion", models.DeviceMotion, "Workshop", 82, 88},
		{"smoke_001", "Warehouse Smoke Detector", models.DeviceSmoke, "Warehouse", 95, 92},
	}

	fleet := make([]models.SecurityDevice, 0, len(defs))
	for _, s := range defs {
		fleet = append(fleet, models.SecurityDevice{
			ID:       s.id,
			Name:     s.name,
			Type:     s.typ,
			Zone:     s.zone,
			Status:   models.StatusArmed,
			Battery:  s.battery,
			Signal:   s.signal,
			LastSeen: now,
			Online:   true,
		})
	}
	return fleet
}
