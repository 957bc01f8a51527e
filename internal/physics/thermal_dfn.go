package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/params"
)

const (
	ThermalDFNName = "ThermalDFN"

	Faraday     = 96485.33212
	GasConstant = 8.314462618
	zeroCelsius = 273.15

	ocpTableSize = 4096
	stoEps       = 1e-9
)

// State layout of the bound model.
const (
	idxNegConcentration = iota
	idxPosConcentration
	idxTemperature
	idxDischargeCapacity
	stateDim
)

// Output channels.
const (
	VarTimeS               = "Time [s]"
	VarTimeMin             = "Time [min]"
	VarTimeH               = "Time [h]"
	VarCurrent             = "Current [A]"
	VarVoltage             = "Voltage [V]"
	VarOCV                 = "Open-circuit voltage [V]"
	VarNegSto              = "Negative electrode stoichiometry"
	VarPosSto              = "Positive electrode stoichiometry"
	VarNegSurfSto          = "Negative particle surface stoichiometry"
	VarPosSurfSto          = "Positive particle surface stoichiometry"
	VarNegOverpotential    = "Negative electrode overpotential [V]"
	VarPosOverpotential    = "Positive electrode overpotential [V]"
	VarTemperatureK        = "Temperature [K]"
	VarTemperatureC        = "Temperature [°C]"
	VarAmbientTemperatureK = "Ambient temperature [K]"
	VarHeatGeneration      = "Heat generation [W]"
	VarDischargeCapacity   = "Discharge capacity [A.h]"
	VarStateOfCharge       = "State of charge"
)

// Events.
const (
	EventMinimumVoltage = "Minimum voltage"
	EventMaximumVoltage = "Maximum voltage"
	EventNegDepleted    = "Zero negative electrode stoichiometry"
	EventPosSaturated   = "Maximum positive electrode stoichiometry"
)

var thermalDFNVariables = []string{
	VarTimeS, VarTimeMin, VarTimeH,
	VarCurrent, VarVoltage, VarOCV,
	VarNegSto, VarPosSto, VarNegSurfSto, VarPosSurfSto,
	VarNegOverpotential, VarPosOverpotential,
	VarTemperatureK, VarTemperatureC, VarAmbientTemperatureK,
	VarHeatGeneration, VarDischargeCapacity, VarStateOfCharge,
}

var thermalDFNNumbers = []string{
	params.NominalCapacity, params.AmbientTemperature, params.InitialTemperature,
	params.ReferenceTemperature, params.ElectrodeHeight, params.ElectrodeWidth,
	params.ContactResistance, params.LowerCutoff, params.UpperCutoff,
	params.ElectrolyteConcentration,
	params.NegThickness, params.NegRadius, params.NegActiveFraction,
	params.NegMaxConcentration, params.NegInitConcentration, params.NegDiffusivity,
	params.NegDiffusionEa, params.NegRateConstant, params.NegReactionEa,
	params.PosThickness, params.PosRadius, params.PosActiveFraction,
	params.PosMaxConcentration, params.PosInitConcentration, params.PosDiffusivity,
	params.PosDiffusionEa, params.PosRateConstant, params.PosReactionEa,
	params.ThermalResistance, params.ThermalCapacitance,
}

var thermalDFNFunctions = []string{
	params.NegOCP, params.PosOCP, params.NegEntropic, params.PosEntropic,
}

// Parameters that must be strictly positive.
var thermalDFNPositive = []string{
	params.NominalCapacity, params.AmbientTemperature, params.InitialTemperature,
	params.ReferenceTemperature, params.ElectrodeHeight, params.ElectrodeWidth,
	params.ElectrolyteConcentration,
	params.NegThickness, params.NegRadius, params.NegActiveFraction,
	params.NegMaxConcentration, params.NegDiffusivity, params.NegRateConstant,
	params.PosThickness, params.PosRadius, params.PosActiveFraction,
	params.PosMaxConcentration, params.PosDiffusivity, params.PosRateConstant,
	params.ThermalResistance, params.ThermalCapacitance,
}

// ThermalDFN is a reduced Doyle-Fuller-Newman cell with a lumped thermal
// node. Each electrode is represented by one volume-averaged particle with
// a quadratic concentration profile; kinetics are symmetric Butler-Volmer.
// The cell temperature follows
//
//	C_c dT/dt = Q - (T - T_amb) / R_c
//
// with Q the irreversible plus reversible heat.
type ThermalDFN struct{}

func NewThermalDFN() *ThermalDFN {
	return &ThermalDFN{}
}

func (m *ThermalDFN) Name() string { return ThermalDFNName }

func (m *ThermalDFN) RequiredParameters() []string {
	out := make([]string, 0, len(thermalDFNNumbers)+len(thermalDFNFunctions))
	out = append(out, thermalDFNNumbers...)
	return append(out, thermalDFNFunctions...)
}

func (m *ThermalDFN) Variables() []string {
	out := make([]string, len(thermalDFNVariables))
	copy(out, thermalDFNVariables)
	return out
}

// Bind checks that pv holds every required parameter and returns the
// solvable model. All problems are reported together.
func (m *ThermalDFN) Bind(pv *params.ParameterValues) (Bound, error) {
	var errs []error
	num := make(map[string]float64, len(thermalDFNNumbers))
	for _, name := range thermalDFNNumbers {
		v, err := pv.Float(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v <= 0 && slices.Contains(thermalDFNPositive, name) {
			errs = append(errs, fmt.Errorf("%w: %q must be positive, got %g", params.ErrInvalidValue, name, v))
		}
		num[name] = v
	}
	fns := make(map[string]params.Function, len(thermalDFNFunctions))
	for _, name := range thermalDFNFunctions {
		fn, err := pv.Func(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fns[name] = fn
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", ThermalDFNName, errors.Join(errs...))
	}

	if num[params.NegInitConcentration] >= num[params.NegMaxConcentration] ||
		num[params.PosInitConcentration] >= num[params.PosMaxConcentration] {
		return nil, fmt.Errorf("%s: %w: initial concentration must be below the maximum", ThermalDFNName, params.ErrInvalidValue)
	}
	if num[params.LowerCutoff] >= num[params.UpperCutoff] {
		return nil, fmt.Errorf("%s: %w: lower voltage cut-off must be below the upper", ThermalDFNName, params.ErrInvalidValue)
	}

	negOCP, posOCP := fns[params.NegOCP], fns[params.PosOCP]
	b := &BoundThermalDFN{
		numbers: num,
		area:    num[params.ElectrodeHeight] * num[params.ElectrodeWidth],
		negOCP:  dynamo.NewLookupTable(func(s float64) float64 { return negOCP(s) }, 0, 1, ocpTableSize),
		posOCP:  dynamo.NewLookupTable(func(s float64) float64 { return posOCP(s) }, 0, 1, ocpTableSize),
		negDUdT: fns[params.NegEntropic],
		posDUdT: fns[params.PosEntropic],
	}
	b.neg = electrode{
		thickness: num[params.NegThickness],
		radius:    num[params.NegRadius],
		cMax:      num[params.NegMaxConcentration],
		c0:        num[params.NegInitConcentration],
		dRef:      num[params.NegDiffusivity],
		dEa:       num[params.NegDiffusionEa],
		kRef:      num[params.NegRateConstant],
		kEa:       num[params.NegReactionEa],
	}
	b.neg.specificArea = 3 * num[params.NegActiveFraction] / b.neg.radius
	b.pos = electrode{
		thickness: num[params.PosThickness],
		radius:    num[params.PosRadius],
		cMax:      num[params.PosMaxConcentration],
		c0:        num[params.PosInitConcentration],
		dRef:      num[params.PosDiffusivity],
		dEa:       num[params.PosDiffusionEa],
		kRef:      num[params.PosRateConstant],
		kEa:       num[params.PosReactionEa],
	}
	b.pos.specificArea = 3 * num[params.PosActiveFraction] / b.pos.radius

	return b, nil
}

type electrode struct {
	thickness    float64
	radius       float64
	specificArea float64
	cMax, c0     float64
	dRef, dEa    float64
	kRef, kEa    float64
}

// BoundThermalDFN is a ThermalDFN bound to parameter values. It is
// immutable after Bind and safe for concurrent Evaluate calls.
type BoundThermalDFN struct {
	numbers          map[string]float64
	area             float64
	neg, pos         electrode
	negOCP, posOCP   *dynamo.LookupTable
	negDUdT, posDUdT params.Function
}

// point holds every derived quantity at one (x, u).
type point struct {
	current          float64
	temperature      float64
	negSto, posSto   float64
	negSurf, posSurf float64
	ocv              float64
	negEta, posEta   float64
	voltage          float64
	heat             float64
	negFlux, posFlux float64
}

func (b *BoundThermalDFN) StateDim() int   { return stateDim }
func (b *BoundThermalDFN) ControlDim() int { return 1 }

func (b *BoundThermalDFN) InitialState() dynamo.State {
	x := make(dynamo.State, stateDim)
	x[idxNegConcentration] = b.neg.c0
	x[idxPosConcentration] = b.pos.c0
	x[idxTemperature] = b.numbers[params.InitialTemperature]
	x[idxDischargeCapacity] = 0
	return x
}

func (b *BoundThermalDFN) Variables() []string {
	out := make([]string, len(thermalDFNVariables))
	copy(out, thermalDFNVariables)
	return out
}

// TemperatureIndex is the position of the cell temperature [K] in the state.
func (b *BoundThermalDFN) TemperatureIndex() int { return idxTemperature }

// GetParams returns the numeric parameters the model was bound with.
func (b *BoundThermalDFN) GetParams() map[string]float64 {
	out := make(map[string]float64, len(b.numbers))
	for k, v := range b.numbers {
		out[k] = v
	}
	return out
}

func (b *BoundThermalDFN) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p := b.evaluate(x, u)
	ambient := b.numbers[params.AmbientTemperature]
	rc := b.numbers[params.ThermalResistance]
	cc := b.numbers[params.ThermalCapacitance]

	dx := make(dynamo.State, stateDim)
	dx[idxNegConcentration] = -3 * p.negFlux / (Faraday * b.neg.radius)
	dx[idxPosConcentration] = -3 * p.posFlux / (Faraday * b.pos.radius)
	dx[idxTemperature] = (p.heat - (p.temperature-ambient)/rc) / cc
	dx[idxDischargeCapacity] = p.current / 3600
	return dx
}

func (b *BoundThermalDFN) Events() []dynamo.Event {
	vMin := b.numbers[params.LowerCutoff]
	vMax := b.numbers[params.UpperCutoff]
	return []dynamo.Event{
		{Name: EventMinimumVoltage, Value: func(x dynamo.State, u dynamo.Control, t float64) float64 {
			return b.evaluate(x, u).voltage - vMin
		}},
		{Name: EventMaximumVoltage, Value: func(x dynamo.State, u dynamo.Control, t float64) float64 {
			return vMax - b.evaluate(x, u).voltage
		}},
		{Name: EventNegDepleted, Value: func(x dynamo.State, u dynamo.Control, t float64) float64 {
			return b.evaluate(x, u).negSurf
		}},
		{Name: EventPosSaturated, Value: func(x dynamo.State, u dynamo.Control, t float64) float64 {
			return 1 - b.evaluate(x, u).posSurf
		}},
	}
}

// Evaluate returns one output channel at (x, u, t).
func (b *BoundThermalDFN) Evaluate(name string, x dynamo.State, u dynamo.Control, t float64) (float64, error) {
	switch name {
	case VarTimeS:
		return t, nil
	case VarTimeMin:
		return t / 60, nil
	case VarTimeH:
		return t / 3600, nil
	case VarAmbientTemperatureK:
		return b.numbers[params.AmbientTemperature], nil
	case VarDischargeCapacity:
		return x[idxDischargeCapacity], nil
	case VarStateOfCharge:
		return 1 - x[idxDischargeCapacity]/b.numbers[params.NominalCapacity], nil
	}

	p := b.evaluate(x, u)
	switch name {
	case VarCurrent:
		return p.current, nil
	case VarVoltage:
		return p.voltage, nil
	case VarOCV:
		return p.ocv, nil
	case VarNegSto:
		return p.negSto, nil
	case VarPosSto:
		return p.posSto, nil
	case VarNegSurfSto:
		return p.negSurf, nil
	case VarPosSurfSto:
		return p.posSurf, nil
	case VarNegOverpotential:
		return p.negEta, nil
	case VarPosOverpotential:
		return p.posEta, nil
	case VarTemperatureK:
		return p.temperature, nil
	case VarTemperatureC:
		return p.temperature - zeroCelsius, nil
	case VarHeatGeneration:
		return p.heat, nil
	}
	return math.NaN(), fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}

func (b *BoundThermalDFN) evaluate(x dynamo.State, u dynamo.Control) point {
	var p point
	if len(u) > 0 {
		p.current = u[0]
	}
	p.temperature = x[idxTemperature]
	tRef := b.numbers[params.ReferenceTemperature]
	ce := b.numbers[params.ElectrolyteConcentration]

	// Positive current is discharge: lithium leaves the negative particles.
	p.negFlux = p.current / (b.neg.specificArea * b.neg.thickness * b.area)
	p.posFlux = -p.current / (b.pos.specificArea * b.pos.thickness * b.area)

	negSurfC := b.neg.surface(x[idxNegConcentration], p.negFlux, p.temperature, tRef)
	posSurfC := b.pos.surface(x[idxPosConcentration], p.posFlux, p.temperature, tRef)

	p.negSto = x[idxNegConcentration] / b.neg.cMax
	p.posSto = x[idxPosConcentration] / b.pos.cMax
	p.negSurf = negSurfC / b.neg.cMax
	p.posSurf = posSurfC / b.pos.cMax

	p.negEta = b.neg.overpotential(negSurfC, ce, p.negFlux, p.temperature, tRef)
	p.posEta = b.pos.overpotential(posSurfC, ce, p.posFlux, p.temperature, tRef)

	p.ocv = b.posOCP.At(p.posSurf) - b.negOCP.At(p.negSurf)
	p.voltage = p.ocv + p.posEta - p.negEta - p.current*b.numbers[params.ContactResistance]

	dUdT := b.posDUdT(p.posSurf) - b.negDUdT(p.negSurf)
	irreversible := p.current * (p.ocv - p.voltage)
	reversible := -p.current * p.temperature * dUdT
	p.heat = irreversible + reversible

	return p
}

// surface applies the quasi-steady quadratic profile correction.
func (e electrode) surface(avg, flux, temperature, tRef float64) float64 {
	d := e.dRef * arrhenius(e.dEa, temperature, tRef)
	return avg - flux*e.radius/(5*Faraday*d)
}

func (e electrode) overpotential(surfC, ce, flux, temperature, tRef float64) float64 {
	cs := math.Min(math.Max(surfC, stoEps*e.cMax), (1-stoEps)*e.cMax)
	j0 := e.kRef * arrhenius(e.kEa, temperature, tRef) * math.Sqrt(ce*cs*(e.cMax-cs))
	return 2 * GasConstant * temperature / Faraday * math.Asinh(flux/(2*j0))
}

func arrhenius(ea, temperature, tRef float64) float64 {
	if ea == 0 {
		return 1
	}
	return math.Exp(ea / GasConstant * (1/tRef - 1/temperature))
}
