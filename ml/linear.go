package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a batch gradient-descent logistic classifier.
// Binary targets fit one weight vector for the positive class;
// multi-class targets fit one-vs-rest vectors with normalized scores.
// Fitting is fully deterministic.
type LogisticRegression struct {
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`

	Weights      [][]float64 `json:"weights,omitempty"`
	Intercepts   []float64   `json:"intercepts,omitempty"`
	ClassList    []int       `json:"classes,omitempty"`
	FeatureCount int         `json:"feature_count"`
}

// NewLogisticRegression creates an untrained model
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		MaxIter:      1000,
		LearningRate: 0.1,
	}
}

func (l *LogisticRegression) Name() string { return "Logistic Regression" }

func (l *LogisticRegression) Capabilities() Capability {
	return CapProbability | CapLinearCoefficients
}

func (l *LogisticRegression) Classes() []int { return l.ClassList }

// Fit trains by gradient descent on the log loss
func (l *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}

	l.ClassList = distinctClasses(y)
	l.FeatureCount = len(X[0])

	design := denseFromRows(X)

	// Binary targets fit the positive class only; multi-class one-vs-rest
	targets := l.ClassList
	if len(l.ClassList) == 2 {
		targets = l.ClassList[1:]
	}

	l.Weights = make([][]float64, len(targets))
	l.Intercepts = make([]float64, len(targets))
	for t, class := range targets {
		binary := make([]float64, len(y))
		for i, label := range y {
			if label == class {
				binary[i] = 1
			}
		}
		l.Weights[t], l.Intercepts[t] = l.fitBinary(design, binary)
	}
	return nil
}

// fitBinary runs gradient descent for one binary problem
func (l *LogisticRegression) fitBinary(X *mat.Dense, y []float64) ([]float64, float64) {
	n, d := X.Dims()

	weights := mat.NewVecDense(d, nil)
	intercept := 0.0

	scores := mat.NewVecDense(n, nil)
	errors := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	step := l.LearningRate / float64(n)

	for iter := 0; iter < l.MaxIter; iter++ {
		scores.MulVec(X, weights)

		interceptGrad := 0.0
		for i := 0; i < n; i++ {
			e := sigmoid(scores.AtVec(i)+intercept) - y[i]
			errors.SetVec(i, e)
			interceptGrad += e
		}

		grad.MulVec(X.T(), errors)
		weights.AddScaledVec(weights, -step, grad)
		intercept -= step * interceptGrad
	}

	out := make([]float64, d)
	copy(out, weights.RawVector().Data)
	return out, intercept
}

// Predict returns the most probable class per row
func (l *LogisticRegression) Predict(X [][]float64) ([]int, error) {
	probas, err := l.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = l.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba returns class probabilities per row
func (l *LogisticRegression) PredictProba(X [][]float64) ([][]float64, error) {
	if len(l.Weights) == 0 {
		return nil, fmt.Errorf("logistic regression: not fitted")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != l.FeatureCount {
			return nil, fmt.Errorf("logistic regression: row %d has %d features, fitted on %d", i, len(row), l.FeatureCount)
		}
		proba := make([]float64, len(l.ClassList))
		if len(l.ClassList) == 2 {
			p := sigmoid(dot(l.Weights[0], row) + l.Intercepts[0])
			proba[0] = 1 - p
			proba[1] = p
		} else {
			total := 0.0
			for c := range l.Weights {
				proba[c] = sigmoid(dot(l.Weights[c], row) + l.Intercepts[c])
				total += proba[c]
			}
			if total > 0 {
				for c := range proba {
					proba[c] /= total
				}
			}
		}
		out[i] = proba
	}
	return out, nil
}

func (l *LogisticRegression) FeatureImportances() []float64 { return nil }

// Coefficients returns the fitted weight vectors, one per binary problem
func (l *LogisticRegression) Coefficients() [][]float64 {
	return l.Weights
}

// denseFromRows copies a row-major matrix into a gonum Dense
func denseFromRows(X [][]float64) *mat.Dense {
	n, d := len(X), len(X[0])
	data := make([]float64, 0, n*d)
	for _, row := range X {
		data = append(data, row...)
	}
	return mat.NewDense(n, d, data)
}

// dot is a plain dense dot product
func dot(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}
