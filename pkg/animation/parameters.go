package animation

import "fmt"

// Clamp restricts v to [Min, Max]. Non-finite values fall back to Default.
func (d ParameterDef) Clamp(v float64) float64 {
	if !finite(v) {
		return d.Default
	}
	return clamp(v, d.Min, d.Max)
}

// scale is the factor applied to the parameter's channels for value v.
func (d ParameterDef) scale(v float64) float64 {
	if d.Default == 0 {
		return 1
	}
	return d.Clamp(v) / d.Default
}

// Parameter looks up a setup parameter by key.
func (p *Profile) Parameter(key string) (ParameterDef, bool) {
	for _, def := range p.Parameters {
		if def.Key == key {
			return def, true
		}
	}
	return ParameterDef{}, false
}

// DefaultParameters returns every declared parameter at its default value.
func (p *Profile) DefaultParameters() Parameters {
	out := make(Parameters, len(p.Parameters))
	for _, def := range p.Parameters {
		out[def.Key] = def.Default
	}
	return out
}

// ClampParameters returns a complete, clamped parameter set. Missing keys
// take their default and unknown keys are dropped.
func (p *Profile) ClampParameters(in Parameters) Parameters {
	out := p.DefaultParameters()
	for _, def := range p.Parameters {
		if v, ok := in[def.Key]; ok {
			out[def.Key] = def.Clamp(v)
		}
	}
	return out
}

// SetParameter validates key and returns v clamped to the parameter's range.
func (p *Profile) SetParameter(params Parameters, key string, v float64) (float64, error) {
	def, ok := p.Parameter(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownParameter, p.Lift, key)
	}
	clamped := def.Clamp(v)
	params[key] = clamped
	return clamped, nil
}

// channelScales multiplies the factors of every parameter bound to each channel.
func (p *Profile) channelScales(params Parameters) map[string]float64 {
	scales := make(map[string]float64)
	for _, def := range p.Parameters {
		v, ok := params[def.Key]
		if !ok {
			continue
		}
		s := def.scale(v)
		for _, ch := range def.Channels {
			if prev, ok := scales[ch]; ok {
				scales[ch] = prev * s
			} else {
				scales[ch] = s
			}
		}
	}
	return scales
}
