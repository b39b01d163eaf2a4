package msinet

import (
	"fmt"

	"github.com/tphakala/go-tflite"
)

// Score pairs a class label with its predicted probability.
type Score struct {
	Label      string
	Confidence float32
}

// Prediction holds the per-label probabilities of a single classification.
type Prediction struct {
	Scores []Score
}

// Best returns the score with the highest confidence. When two labels have
// exactly equal confidence the earlier label in output tensor order wins.
func (p Prediction) Best() Score {
	var best Score
	for i, score := range p.Scores {
		if i == 0 || score.Confidence > best.Confidence {
			best = score
		}
	}
	return best
}

// FormatPercentage renders a confidence value as a display percentage,
// rounded to two decimal places with a trailing percent sign.
func FormatPercentage(confidence float32) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}

// Predict performs inference on a prepared input tensor using the
// TensorFlow Lite interpreter and pairs the output with the class labels.
func (m *MSINet) Predict(sample []float32) (Prediction, error) {
	// Serialize access to the interpreter, the runtime is shared
	// process-wide state.
	m.mu.Lock()
	defer m.mu.Unlock()

	inputTensor := m.Interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return Prediction{}, fmt.Errorf("cannot get input tensor")
	}

	copy(inputTensor.Float32s(), sample)

	if status := m.Interpreter.Invoke(); status != tflite.OK {
		return Prediction{}, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := m.Interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return Prediction{}, fmt.Errorf("cannot get output tensor")
	}

	predictions := make([]float32, len(outputTensor.Float32s()))
	copy(predictions, outputTensor.Float32s())

	return pairLabelsAndConfidence(m.labels, predictions)
}

// Classify loads the image at the given path, prepares it as a single-image
// batch and runs it through the model.
func (m *MSINet) Classify(imagePath string) (Prediction, error) {
	sample, err := LoadImageTensor(imagePath)
	if err != nil {
		return Prediction{}, err
	}

	prediction, err := m.Predict(sample)
	if err != nil {
		return Prediction{}, fmt.Errorf("prediction failed: %w", err)
	}
	return prediction, nil
}

// pairLabelsAndConfidence pairs labels with their corresponding confidence values.
func pairLabelsAndConfidence(labels []string, preds []float32) (Prediction, error) {
	if len(labels) != len(preds) {
		return Prediction{}, fmt.Errorf("mismatched labels and predictions lengths: %d vs %d", len(labels), len(preds))
	}

	scores := make([]Score, 0, len(labels))
	for i, label := range labels {
		scores = append(scores, Score{Label: label, Confidence: preds[i]})
	}
	return Prediction{Scores: scores}, nil
}
