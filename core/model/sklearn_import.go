package model

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/ezoic/dicl/pkg/errors"
)

// SKLearnFormatVersion is the only export format understood by the loaders.
const SKLearnFormatVersion = "1.0"

// SKLearnModelSpec holds the metadata of an object exported from scikit-learn
type SKLearnModelSpec struct {
	Name           string `json:"name"`                      // class name, e.g. "PCA"
	FormatVersion  string `json:"format_version"`            // export format version
	SKLearnVersion string `json:"sklearn_version,omitempty"` // scikit-learn version used for fitting
}

// SKLearnModel is a fitted scikit-learn object exported as JSON
type SKLearnModel struct {
	ModelSpec SKLearnModelSpec `json:"model_spec"`
	Params    json.RawMessage  `json:"params"`
}

// SKLearnMinMaxScalerParams mirrors the fitted attributes of sklearn.preprocessing.MinMaxScaler
type SKLearnMinMaxScalerParams struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

// SKLearnStandardScalerParams mirrors the fitted attributes of sklearn.preprocessing.StandardScaler
type SKLearnStandardScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// SKLearnPCAParams mirrors the fitted attributes of sklearn.decomposition.PCA
type SKLearnPCAParams struct {
	Components        [][]float64 `json:"components"` // n_components × n_features
	Mean              []float64   `json:"mean"`
	ExplainedVariance []float64   `json:"explained_variance,omitempty"`
}

// SKLearnPipelineParams holds the steps of an exported sklearn.pipeline.Pipeline in order
type SKLearnPipelineParams struct {
	Steps []SKLearnModel `json:"steps"`
}

// LoadSKLearnModelFromFile reads an exported scikit-learn object from a JSON file.
//
// Example:
//
//	m, err := model.LoadSKLearnModelFromFile("disentangler.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadSKLearnModelFromFile(filename string) (*SKLearnModel, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", filename)
	}
	defer func() { _ = file.Close() }()

	return LoadSKLearnModelFromReader(file)
}

// LoadSKLearnModelFromReader reads an exported scikit-learn object and validates its metadata.
func LoadSKLearnModelFromReader(r io.Reader) (*SKLearnModel, error) {
	var m SKLearnModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "failed to decode JSON")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *SKLearnModel) validate() error {
	if m.ModelSpec.FormatVersion == "" {
		return errors.NewValueError("LoadSKLearnModel", "format_version is required")
	}
	if m.ModelSpec.FormatVersion != SKLearnFormatVersion {
		return errors.NewValueError("LoadSKLearnModel",
			fmt.Sprintf("unsupported format version: %s", m.ModelSpec.FormatVersion))
	}
	if m.ModelSpec.Name == "" {
		return errors.NewValueError("LoadSKLearnModel", "model name is required")
	}
	return nil
}

// DecodeParams unmarshals the params of m into out after checking the model name.
func (m *SKLearnModel) DecodeParams(name string, out interface{}) error {
	if m.ModelSpec.Name != name {
		return errors.NewValueError("SKLearnModel.DecodeParams",
			fmt.Sprintf("expected %s, got %s", name, m.ModelSpec.Name))
	}
	if err := json.Unmarshal(m.Params, out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s params", name)
	}
	return nil
}

// PipelineSteps returns the validated steps of an exported Pipeline.
func (m *SKLearnModel) PipelineSteps() ([]SKLearnModel, error) {
	var params SKLearnPipelineParams
	if err := m.DecodeParams("Pipeline", &params); err != nil {
		return nil, err
	}
	if len(params.Steps) == 0 {
		return nil, errors.NewValueError("SKLearnModel.PipelineSteps", "pipeline has no steps")
	}
	for i := range params.Steps {
		if params.Steps[i].ModelSpec.FormatVersion == "" {
			params.Steps[i].ModelSpec.FormatVersion = m.ModelSpec.FormatVersion
		}
		if err := params.Steps[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
	}
	return params.Steps, nil
}

// ExportSKLearnModel writes params in the scikit-learn exchange format.
func ExportSKLearnModel(modelName string, params interface{}, w io.Writer) error {
	m, err := NewSKLearnModel(modelName, params)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// NewSKLearnModel wraps params with exchange-format metadata.
func NewSKLearnModel(modelName string, params interface{}) (*SKLearnModel, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal params")
	}
	return &SKLearnModel{
		ModelSpec: SKLearnModelSpec{
			Name:          modelName,
			FormatVersion: SKLearnFormatVersion,
		},
		Params: paramsJSON,
	}, nil
}
