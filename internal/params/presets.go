package params

import (
	"math"
	"sort"
)

const (
	// PresetThermalDFN is the set used by the thermal example: the Chen2020
	// chemistry plus the lumped thermal resistance R_c and capacitance C_c.
	PresetThermalDFN = "ThermalDFN"
	PresetChen2020   = "Chen2020"

	// DefaultPreset is what the example driver loads.
	DefaultPreset = PresetThermalDFN
)

// Names of the parameters the bundled model reads.
const (
	NominalCapacity          = "Nominal cell capacity [A.h]"
	CurrentFunction          = "Current function [A]"
	AmbientTemperature       = "Ambient temperature [K]"
	InitialTemperature       = "Initial temperature [K]"
	ReferenceTemperature     = "Reference temperature [K]"
	ElectrodeHeight          = "Electrode height [m]"
	ElectrodeWidth           = "Electrode width [m]"
	ContactResistance        = "Contact resistance [Ohm]"
	LowerCutoff              = "Lower voltage cut-off [V]"
	UpperCutoff              = "Upper voltage cut-off [V]"
	ElectrolyteConcentration = "Initial concentration in electrolyte [mol.m-3]"

	NegThickness         = "Negative electrode thickness [m]"
	NegRadius            = "Negative particle radius [m]"
	NegActiveFraction    = "Negative electrode active material volume fraction"
	NegMaxConcentration  = "Maximum concentration in negative electrode [mol.m-3]"
	NegInitConcentration = "Initial concentration in negative electrode [mol.m-3]"
	NegDiffusivity       = "Negative particle diffusivity [m2.s-1]"
	NegDiffusionEa       = "Negative particle diffusivity activation energy [J.mol-1]"
	NegRateConstant      = "Negative electrode reaction rate constant [A.m-2.(m3.mol)-1.5]"
	NegReactionEa        = "Negative electrode reaction activation energy [J.mol-1]"
	NegOCP               = "Negative electrode OCP [V]"
	NegEntropic          = "Negative electrode OCP entropic change [V.K-1]"

	PosThickness         = "Positive electrode thickness [m]"
	PosRadius            = "Positive particle radius [m]"
	PosActiveFraction    = "Positive electrode active material volume fraction"
	PosMaxConcentration  = "Maximum concentration in positive electrode [mol.m-3]"
	PosInitConcentration = "Initial concentration in positive electrode [mol.m-3]"
	PosDiffusivity       = "Positive particle diffusivity [m2.s-1]"
	PosDiffusionEa       = "Positive particle diffusivity activation energy [J.mol-1]"
	PosRateConstant      = "Positive electrode reaction rate constant [A.m-2.(m3.mol)-1.5]"
	PosReactionEa        = "Positive electrode reaction activation energy [J.mol-1]"
	PosOCP               = "Positive electrode OCP [V]"
	PosEntropic          = "Positive electrode OCP entropic change [V.K-1]"

	// ThermalResistance is the lumped cell-to-ambient resistance [K.W-1].
	ThermalResistance = "R_c"
	// ThermalCapacitance is the lumped cell heat capacity [J.K-1].
	ThermalCapacitance = "C_c"
)

var presets = map[string]func() map[string]any{
	PresetChen2020:   chen2020,
	PresetThermalDFN: thermalDFN,
}

// Presets lists the preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GraphiteOCPChen2020 is the LG M50 graphite-SiOx open-circuit potential.
func GraphiteOCPChen2020(sto float64) float64 {
	return 1.9793*math.Exp(-39.3631*sto) + 0.2482 -
		0.0909*math.Tanh(29.8538*(sto-0.1234)) -
		0.04478*math.Tanh(14.9159*(sto-0.2769)) -
		0.0205*math.Tanh(30.4444*(sto-0.6103))
}

// NMC811OCPChen2020 is the LG M50 NMC 811 open-circuit potential.
func NMC811OCPChen2020(sto float64) float64 {
	return -0.8090*sto + 4.4875 -
		0.0428*math.Tanh(18.5138*(sto-0.5542)) -
		17.7326*math.Tanh(15.7890*(sto-0.3117)) +
		17.5842*math.Tanh(15.9308*(sto-0.3120))
}

func chen2020() map[string]any {
	return map[string]any{
		NominalCapacity:          5.0,
		CurrentFunction:          5.0,
		AmbientTemperature:       298.15,
		InitialTemperature:       298.15,
		ReferenceTemperature:     298.15,
		ElectrodeHeight:          0.065,
		ElectrodeWidth:           1.58,
		ContactResistance:        0.015,
		LowerCutoff:              2.5,
		UpperCutoff:              4.2,
		ElectrolyteConcentration: 1000.0,

		NegThickness:         85.2e-6,
		NegRadius:            5.86e-6,
		NegActiveFraction:    0.75,
		NegMaxConcentration:  33133.0,
		NegInitConcentration: 29866.0,
		NegDiffusivity:       3.3e-14,
		NegDiffusionEa:       0.0,
		NegRateConstant:      6.48e-7,
		NegReactionEa:        35000.0,
		NegOCP:               GraphiteOCPChen2020,
		NegEntropic:          0.0,

		PosThickness:         75.6e-6,
		PosRadius:            5.22e-6,
		PosActiveFraction:    0.665,
		PosMaxConcentration:  63104.0,
		PosInitConcentration: 17038.0,
		PosDiffusivity:       4e-15,
		PosDiffusionEa:       0.0,
		PosRateConstant:      3.42e-6,
		PosReactionEa:        17800.0,
		PosOCP:               NMC811OCPChen2020,
		PosEntropic:          0.0,
	}
}

func thermalDFN() map[string]any {
	values := chen2020()
	values[CurrentFunction] = 2.5
	values[NegDiffusionEa] = 30300.0
	values[PosDiffusionEa] = 25000.0
	values[PosEntropic] = -1.0e-4
	values[ThermalResistance] = 3.0
	values[ThermalCapacitance] = 70.0
	return values
}
