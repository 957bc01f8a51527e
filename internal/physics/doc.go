// Package physics provides the electrochemical cell models.
//
// A [Model] is bound to a [params.ParameterValues] set and yields a
// [Bound] system the simulator can integrate:
//
//	pv, _ := params.FromPreset(params.DefaultPreset)
//	bound, err := physics.NewThermalDFN().Bind(pv)
//
// [ThermalDFN] reduces each electrode to one averaged particle and couples
// the cell to ambient through a lumped thermal resistance and heat
// capacity. Heat generation is the irreversible I(U-V) term minus the
// reversible I*T*dU/dT term.
//
// Besides the state, a bound model evaluates named output channels such
// as "Temperature [°C]" or "Voltage [V]"; see [BoundThermalDFN.Variables].
package physics
