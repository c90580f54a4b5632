// Package dtc decodes OBD-II diagnostic trouble codes. The session layer
// does the protocol I/O; this package only handles the two-byte code
// encoding and known-code descriptions.
package dtc

import "fmt"

// Code is a diagnostic trouble code in display form, e.g. "P0133".
type Code string

var systems = map[byte]string{
	'P': "Powertrain",
	'C': "Chassis",
	'B': "Body",
	'U': "Network",
}

// System returns the subsystem the code belongs to, based on its prefix.
func (c Code) System() string {
	if len(c) == 0 {
		return "Unknown"
	}
	if name, ok := systems[c[0]]; ok {
		return name
	}

	return "Unknown"
}

var systemLetters = [4]byte{'P', 'C', 'B', 'U'}

// Decode converts raw mode 03 response bytes into codes. Codes are encoded
// two bytes each; an all-zero pair is frame padding, not a code.
func Decode(raw []byte) []Code {
	var codes []Code
	for i := 0; i+1 < len(raw); i += 2 {
		hi, lo := raw[i], raw[i+1]
		if hi == 0 && lo == 0 {
			continue
		}

		system := systemLetters[hi>>6]
		first := (hi >> 4) & 0x3
		code := fmt.Sprintf("%c%d%X%02X", system, first, hi&0xF, lo)
		codes = append(codes, Code(code))
	}

	return codes
}

// Descriptions for codes common enough to name outright. Everything else
// falls back to the subsystem classification.
var descriptions = map[Code]string{
	"P0128": "Coolant thermostat below regulating temperature",
	"P0133": "O2 sensor circuit slow response (bank 1, sensor 1)",
	"P0171": "System too lean (bank 1)",
	"P0174": "System too lean (bank 2)",
	"P0300": "Random/multiple cylinder misfire detected",
	"P0301": "Cylinder 1 misfire detected",
	"P0401": "Exhaust gas recirculation flow insufficient",
	"P0420": "Catalyst system efficiency below threshold (bank 1)",
	"P0440": "Evaporative emission control system malfunction",
	"P0442": "Evaporative emission system leak detected (small leak)",
	"P0455": "Evaporative emission system leak detected (large leak)",
}

// Describe returns a human-readable description for a code.
func Describe(c Code) string {
	if desc, ok := descriptions[c]; ok {
		return desc
	}

	return c.System() + " diagnostic trouble code"
}
