// Package params holds named parameter sets for cell models.
//
// A [ParameterValues] is built from a preset and then adjusted:
//
//	pv, err := params.FromPreset(params.DefaultPreset)
//	err = pv.Update(map[string]any{"R_c": 2, "C_c": 60}, true)
//
// Update with checkAlreadyExists=true refuses keys the set does not
// already hold; pass false to introduce new keys, for example to add the
// lumped thermal parameters to the Chen2020 preset.
package params
