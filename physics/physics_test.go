package physics

import (
	"math"
	"testing"

	"github.com/DollSimon/tweezers-sub000/internal/monitoring"
	"github.com/DollSimon/tweezers-sub000/internal/testutil"
)

func TestKbT(t *testing.T) {
	// Boltzmann * 298.15 K * 1e21.
	testutil.AssertClose(t, "KbT(25)", KbT(25), 4.1164, 1e-3)
	testutil.AssertClose(t, "KbT(0)", KbT(0), Boltzmann*273.15*1e21, 1e-12)
}

func TestDragSphere(t *testing.T) {
	// Reference bead: radius 1000 nm in water-like viscosity.
	got := DragSphere(1000, 8.93e-10)
	testutil.AssertRelClose(t, "DragSphere", got, 1.683e-5, 1e-3)
}

func TestTrapStiffness(t *testing.T) {
	got := TrapStiffness(500, 1000, 8.93e-10)
	testutil.AssertRelClose(t, "TrapStiffness", got, 0.0529, 1e-3)
}

func TestDiffusionCoefficient(t *testing.T) {
	d, err := DiffusionCoefficient(1000, 25, 8.93e-10)
	testutil.AssertNoError(t, err)
	testutil.AssertRelClose(t, "DiffusionCoefficient", d, KbT(25)/DragSphere(1000, 8.93e-10), 1e-12)

	t.Run("malformed inputs", func(t *testing.T) {
		for _, tc := range []struct {
			name                          string
			radius, temperature, viscosity float64
		}{
			{"zero radius", 0, 25, 1e-9},
			{"below absolute zero", 1000, -300, 1e-9},
			{"zero viscosity", 1000, 25, 0},
		} {
			t.Run(tc.name, func(t *testing.T) {
				_, err := DiffusionCoefficient(tc.radius, tc.temperature, tc.viscosity)
				testutil.AssertError(t, err)
			})
		}
	})
}

func TestViscosityWater(t *testing.T) {
	// Tabulated value at 25 degC is about 8.9e-10 pN s / nm^2.
	testutil.AssertRelClose(t, "ViscosityWater(25)", ViscosityWater(25), 8.9e-10, 0.02)
	if ViscosityWater(5) <= ViscosityWater(50) {
		t.Error("viscosity should decrease with temperature")
	}
}

func TestLorentzian(t *testing.T) {
	d, fc := 0.46, 500.0
	testutil.AssertRelClose(t, "Lorentzian(0)", Lorentzian(0, d, fc), d/(math.Pi*math.Pi*fc*fc), 1e-12)
	// Power at the corner frequency is half the plateau.
	testutil.AssertRelClose(t, "Lorentzian(fc)", Lorentzian(fc, d, fc), Lorentzian(0, d, fc)/2, 1e-12)
}

func TestPSDDiode(t *testing.T) {
	d, fc := 0.46, 500.0
	// With full instantaneous response the diode has no effect.
	testutil.AssertRelClose(t, "a=1", PSDDiode(1234, d, fc, 8000, 1), Lorentzian(1234, d, fc), 1e-12)
	// At f = f3dB with a = 0 the response is halved.
	testutil.AssertRelClose(t, "a=0 at f3dB", PSDDiode(8000, d, fc, 8000, 0), Lorentzian(8000, d, fc)/2, 1e-12)
}

func TestDistanceCalibration(t *testing.T) {
	beta := DistanceCalibration(0.46, 1000, 8.93e-10, 25)
	want := math.Sqrt(KbT(25) / (DragSphere(1000, 8.93e-10) * 0.46))
	testutil.AssertRelClose(t, "DistanceCalibration", beta, want, 1e-12)
}

func TestHydroCouplingFactor(t *testing.T) {
	t.Run("far apart approaches one", func(t *testing.T) {
		c, err := HydroCouplingFactor(1e12, 1000, 1000, Oseen)
		testutil.AssertNoError(t, err)
		testutil.AssertClose(t, "c", c, 1, 1e-6)
	})

	t.Run("close distance stays physical", func(t *testing.T) {
		c, err := HydroCouplingFactor(4000, 1000, 1000, Oseen)
		testutil.AssertNoError(t, err)
		if c <= 0 || c > 1 {
			t.Errorf("c = %v, want in (0, 1]", c)
		}
	})

	t.Run("methods ordered by correction size", func(t *testing.T) {
		oseen, err := HydroCouplingFactor(5000, 1000, 1000, Oseen)
		testutil.AssertNoError(t, err)
		rp, err := HydroCouplingFactor(5000, 1000, 1000, RotnePrager)
		testutil.AssertNoError(t, err)
		if rp <= oseen {
			t.Errorf("Rotne-Prager factor %v should exceed Oseen %v", rp, oseen)
		}
		rpu, err := HydroCouplingFactor(5000, 1000, 1000, RotnePragerUneven)
		testutil.AssertNoError(t, err)
		testutil.AssertRelClose(t, "equal spheres", rpu, rp, 1e-12)
	})

	t.Run("non-physical factor warns but returns", func(t *testing.T) {
		defer monitoring.SetLogger(monitoring.Logf)
		var warned bool
		monitoring.SetLogger(func(string, ...interface{}) { warned = true })

		c, err := HydroCouplingFactor(1000, 1000, 1000, Oseen)
		testutil.AssertNoError(t, err)
		if c > 0 {
			t.Errorf("c = %v, want non-positive for overlapping beads", c)
		}
		if !warned {
			t.Error("expected a non-physical result warning")
		}
	})

	t.Run("malformed inputs", func(t *testing.T) {
		if _, err := HydroCouplingFactor(0, 1000, 1000, Oseen); err == nil {
			t.Error("expected error for zero distance")
		}
		if _, err := HydroCouplingFactor(5000, 1000, 1000, CouplingMethod(99)); err == nil {
			t.Error("expected error for unknown method")
		}
	})
}
