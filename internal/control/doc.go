// Package control provides current drives for the cell models.
//
// Drives implement [dynamo.Controller]; the single control entry is the
// applied current in amperes, positive on discharge:
//
//   - [Current]: constant or time-dependent current from the parameter set
//   - [None]: open circuit
//   - [Derate]: PID loop that cuts the current above a temperature limit
//
// # Usage
//
//	drive, err := control.FromParameters(pv)
//	sim := dynamo.New(bound, integ, drive)
package control
