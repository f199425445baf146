package domain

// PhysicalConstants holds the fixed physical parameters of the globe energy
// balance. A value of this type is immutable for the lifetime of a solver
// run; tests may construct alternates (e.g. a different globe diameter)
// without code edits.
type PhysicalConstants struct {
	GlobeDiameter         float64 // D, m
	AirConductivity       float64 // k_air, W/(m·K)
	KinematicViscosity    float64 // ν, m²/s
	SolarAbsorptivity     float64 // α_sp, fraction of shortwave absorbed
	Emissivity            float64 // ε, longwave emissivity of the globe
	AtmosphericEmissivity float64 // ε_a, effective sky emissivity
	StefanBoltzmann       float64 // σ, W/(m²·K⁴)
}

// DefaultConstants returns the parameter set for the standard 50 mm matte
// black globe in near-surface air.
func DefaultConstants() PhysicalConstants {
	return PhysicalConstants{
		GlobeDiameter:         0.05,
		AirConductivity:       0.025,
		KinematicViscosity:    1.5e-5,
		SolarAbsorptivity:     0.89,
		Emissivity:            0.95,
		AtmosphericEmissivity: 0.8,
		StefanBoltzmann:       5.67e-8,
	}
}
