package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DollSimon/tweezers-sub000/physics"
	"github.com/DollSimon/tweezers-sub000/units"
)

// Water-like reference conditions: a 2 um bead at room temperature.
var waterPC = PhysicalConstants{
	Temperature:  25,
	Viscosity:    8.93e-10,
	BeadDiameter: 2000,
}

func TestThermal(t *testing.T) {
	const (
		cornerFreq = 500.0
		diffCoef   = 0.46
	)

	rec, err := Thermal(cornerFreq, diffCoef, waterPC)
	require.NoError(t, err)

	assert.InEpsilon(t, 1.6833e-5, rec.DragCoefficient.Value, 1e-3, "drag")
	assert.InEpsilon(t, 0.052883, rec.Stiffness.Value, 1e-3, "stiffness")

	wantDisp := math.Sqrt(physics.KbT(waterPC.Temperature) / (rec.DragCoefficient.Value * diffCoef))
	assert.InEpsilon(t, wantDisp, rec.DisplacementSensitivity.Value, 1e-12, "displacement sensitivity")
	assert.InEpsilon(t, wantDisp*rec.Stiffness.Value, rec.ForceSensitivity.Value, 1e-12, "force sensitivity")

	assert.Equal(t, units.Stiffness, rec.Stiffness.Unit)
	assert.Equal(t, units.DisplacementSens, rec.DisplacementSensitivity.Unit)
	assert.Equal(t, units.ForceSens, rec.ForceSensitivity.Unit)
	assert.Equal(t, units.Drag, rec.DragCoefficient.Unit)
	assert.Zero(t, rec.HydroFactor, "no hydrodynamic correction applied yet")
}

func TestThermal_MatchesThermalDrag(t *testing.T) {
	const (
		cornerFreq = 750.0
		diffCoef   = 0.3
	)

	fromPC, err := Thermal(cornerFreq, diffCoef, waterPC)
	require.NoError(t, err)

	drag := physics.DragSphere(waterPC.BeadDiameter/2, waterPC.Viscosity)
	fromDrag, err := ThermalDrag(cornerFreq, diffCoef, drag, waterPC.Temperature)
	require.NoError(t, err)

	assert.Equal(t, fromPC, fromDrag)
}

func TestThermal_Validation(t *testing.T) {
	tests := []struct {
		name string
		pc   PhysicalConstants
	}{
		{"temperature below absolute zero", PhysicalConstants{Temperature: -300, Viscosity: 8.93e-10, BeadDiameter: 2000}},
		{"zero viscosity", PhysicalConstants{Temperature: 25, Viscosity: 0, BeadDiameter: 2000}},
		{"negative bead diameter", PhysicalConstants{Temperature: 25, Viscosity: 8.93e-10, BeadDiameter: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Thermal(500, 0.46, tt.pc)
			assert.Error(t, err)
		})
	}
}

func TestThermalDrag_Validation(t *testing.T) {
	t.Run("non-positive drag", func(t *testing.T) {
		_, err := ThermalDrag(500, 0.46, 0, 25)
		assert.Error(t, err)
	})
	t.Run("temperature below absolute zero", func(t *testing.T) {
		_, err := ThermalDrag(500, 0.46, 1.7e-5, -300)
		assert.Error(t, err)
	})
}
