package model

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/flightdelay/flightdelay/internal/features"
)

// DefaultPath is where deployments place the artifact.
const DefaultPath = "public/model/flight_delay_models_complete.json"

type artifactDoc struct {
	Version       int                           `json:"version"`
	TrainedAt     *time.Time                    `json:"trained_at"`
	Departure     *pairSpec                     `json:"departure"`
	Arrival       *pairSpec                     `json:"arrival"`
	Preprocessors *features.PreprocessorsConfig `json:"preprocessors"`
}

type pairSpec struct {
	Classifier *EstimatorSpec `json:"classifier"`
	Regressor  *EstimatorSpec `json:"regressor"`
}

// Load reads the artifact at path.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrArtifactInvalid, path)
	}

	b, err := Decode(f)
	if err != nil {
		return nil, err
	}
	b.Path = path
	b.Size = info.Size()
	return b, nil
}

// Decode reads an artifact document, gzip-compressed or plain.
func Decode(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
		}
		defer zr.Close()
		src = zr
	}

	var doc artifactDoc
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrArtifactInvalid, err)
	}

	b, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	b.LoadedAt = time.Now().UTC()
	return b, nil
}

func build(doc artifactDoc) (*Bundle, error) {
	cfg := features.PreprocessorsConfig{}
	if doc.Preprocessors != nil {
		cfg = *doc.Preprocessors
	}
	pre, err := features.NewPreprocessors(cfg)
	if err != nil {
		return nil, err
	}
	names := pre.FeatureNames()

	b := &Bundle{
		Version:       doc.Version,
		TrainedAt:     doc.TrainedAt,
		Preprocessors: pre,
		kinds:         make(map[string]string, 4),
	}

	if b.Departure, err = compilePair("departure", doc.Departure, names, b.kinds); err != nil {
		return nil, err
	}
	if b.Arrival, err = compilePair("arrival", doc.Arrival, names, b.kinds); err != nil {
		return nil, err
	}
	return b, nil
}

func compilePair(direction string, spec *pairSpec, names []string, kinds map[string]string) (Pair, error) {
	if spec == nil || spec.Classifier == nil || spec.Regressor == nil {
		return Pair{}, fmt.Errorf("%s: classifier and regressor are required", direction)
	}

	clf, err := Compile(*spec.Classifier, names)
	if err != nil {
		return Pair{}, fmt.Errorf("%s classifier: %w", direction, err)
	}
	if !clf.Probabilistic() {
		return Pair{}, fmt.Errorf("%s classifier: %w", direction, ErrNotProbabilistic)
	}

	reg, err := Compile(*spec.Regressor, names)
	if err != nil {
		return Pair{}, fmt.Errorf("%s regressor: %w", direction, err)
	}

	kinds[direction+".classifier"] = clf.Kind()
	kinds[direction+".regressor"] = reg.Kind()
	return Pair{Classifier: clf, Regressor: reg}, nil
}
