package features

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPreprocessors is returned when the training statistics are inconsistent.
var ErrInvalidPreprocessors = errors.New("invalid preprocessors")

// PreprocessorsConfig is the serialized form of the training-time statistics.
type PreprocessorsConfig struct {
	RouteDelayAvg   map[string]float64  `json:"route_delay_avg"`
	AirlineDelayAvg map[string]float64  `json:"airline_delay_avg"`
	OriginDelayAvg  map[string]float64  `json:"origin_delay_avg"`
	HourDelayAvg    map[int]float64     `json:"hour_delay_avg"`
	FeatureMedians  map[string]float64  `json:"feature_medians"`
	FeatureModes    map[string]string   `json:"feature_modes"`
	LabelEncoders   map[string][]string `json:"label_encoders"`
	FeatureNames    []string            `json:"feature_names"`
}

// Preprocessors is the read-only bundle of statistics used to prepare a
// record. Build it with NewPreprocessors; it is safe for concurrent use.
type Preprocessors struct {
	routeDelayAvg   map[string]float64
	airlineDelayAvg map[string]float64
	originDelayAvg  map[string]float64
	hourDelayAvg    map[int]float64
	medians         map[string]float64
	encoders        map[string]*LabelEncoder
	featureNames    []string
}

// NewPreprocessors validates cfg and builds the encoders. An empty feature
// list selects DefaultFeatureNames.
func NewPreprocessors(cfg PreprocessorsConfig) (*Preprocessors, error) {
	p := &Preprocessors{
		routeDelayAvg:   copyFloats(cfg.RouteDelayAvg),
		airlineDelayAvg: copyFloats(cfg.AirlineDelayAvg),
		originDelayAvg:  copyFloats(cfg.OriginDelayAvg),
		hourDelayAvg:    make(map[int]float64, len(cfg.HourDelayAvg)),
		medians:         copyFloats(cfg.FeatureMedians),
		encoders:        make(map[string]*LabelEncoder, len(cfg.LabelEncoders)),
	}

	for k, v := range cfg.HourDelayAvg {
		p.hourDelayAvg[k] = v
	}

	for col, classes := range cfg.LabelEncoders {
		enc, err := NewLabelEncoder(classes, cfg.FeatureModes[col])
		if err != nil {
			return nil, fmt.Errorf("%w: encoder %s: %w", ErrInvalidPreprocessors, col, err)
		}
		p.encoders[col] = enc
	}

	if len(cfg.FeatureNames) == 0 {
		p.featureNames = DefaultFeatureNames()
	} else {
		seen := make(map[string]struct{}, len(cfg.FeatureNames))
		for _, name := range cfg.FeatureNames {
			if name == "" {
				return nil, fmt.Errorf("%w: empty feature name", ErrInvalidPreprocessors)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidPreprocessors, name)
			}
			seen[name] = struct{}{}
		}
		p.featureNames = append([]string(nil), cfg.FeatureNames...)
	}

	return p, nil
}

// FeatureNames returns a copy of the output feature order.
func (p *Preprocessors) FeatureNames() []string {
	return append([]string(nil), p.featureNames...)
}

// Encoder returns the label encoder for a categorical field, if any.
func (p *Preprocessors) Encoder(field string) (*LabelEncoder, bool) {
	enc, ok := p.encoders[field]
	return enc, ok
}

// EncoderSizes returns the number of known classes per encoded field.
func (p *Preprocessors) EncoderSizes() map[string]int {
	out := make(map[string]int, len(p.encoders))
	for name, enc := range p.encoders {
		out[name] = enc.Len()
	}
	return out
}

// Median returns the imputation value for a numeric feature, 0 if none was recorded.
func (p *Preprocessors) Median(feature string) float64 {
	return p.medians[feature]
}

// Summary describes the bundle for diagnostics.
type Summary struct {
	FeatureNames []string       `json:"feature_names"`
	EncoderSizes map[string]int `json:"encoder_sizes"`
	Routes       int            `json:"routes"`
	Airlines     int            `json:"airlines"`
	Origins      int            `json:"origins"`
	Hours        int            `json:"hours"`
	Medians      []string       `json:"medians"`
}

// Summary returns counts of the bundle's contents.
func (p *Preprocessors) Summary() Summary {
	medians := make([]string, 0, len(p.medians))
	for k := range p.medians {
		medians = append(medians, k)
	}
	sort.Strings(medians)

	return Summary{
		FeatureNames: p.FeatureNames(),
		EncoderSizes: p.EncoderSizes(),
		Routes:       len(p.routeDelayAvg),
		Airlines:     len(p.airlineDelayAvg),
		Origins:      len(p.originDelayAvg),
		Hours:        len(p.hourDelayAvg),
		Medians:      medians,
	}
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
