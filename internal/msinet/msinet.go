// msinet.go MSINet model specific code
package msinet

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/errors"
	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"
)

// Input geometry expected by the model: a single 200x200 RGB image.
const (
	InputWidth    = 200
	InputHeight   = 200
	InputChannels = 3
)

// Classifier is the interface the web layer depends on. Handlers take a
// Classifier rather than the concrete model so tests can substitute a fake.
type Classifier interface {
	Classify(imagePath string) (Prediction, error)
	Labels() []string
}

// MSINet represents the histology classification model with its interpreter
// and configuration. The interpreter is loaded once at process start and
// shared for the process lifetime; Predict serializes access with a mutex
// since the TFLite runtime is not assumed reentrant.
type MSINet struct {
	Interpreter *tflite.Interpreter
	Settings    *conf.Settings
	labels      []string
	mu          sync.Mutex
}

// New initializes a new MSINet instance with the given settings.
func New(settings *conf.Settings) (*MSINet, error) {
	m := &MSINet{
		Settings: settings,
		labels:   settings.Model.Labels,
	}

	if err := m.initializeModel(); err != nil {
		return nil, errors.New(fmt.Errorf("MSINet: failed to initialize model: %w", err)).
			Component("msinet").
			Category(errors.CategoryModelInit).
			Context("model_path", settings.Model.Path).
			Build()
	}

	return m, nil
}

// initializeModel loads and initializes the TensorFlow Lite model.
func (m *MSINet) initializeModel() error {
	modelData, err := os.ReadFile(m.Settings.Model.Path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryModelLoad).
			Context("model_path", m.Settings.Model.Path).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.Newf("cannot load TensorFlow Lite model").
			Category(errors.CategoryModelInit).
			Context("model_path", m.Settings.Model.Path).
			Context("model_size_kb", len(modelData)/1024).
			Build()
	}

	threads := m.determineThreadCount(m.Settings.Model.Threads)

	// Configure interpreter options.
	options := tflite.NewInterpreterOptions()

	// Try to use XNNPACK delegate if enabled in settings
	log := getLogger()
	if m.Settings.Model.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		getLogger().Error("TFLite error", "message", msg)
	}, nil)

	// Create and allocate the TensorFlow Lite interpreter.
	m.Interpreter = tflite.NewInterpreter(model, options)
	if m.Interpreter == nil {
		return fmt.Errorf("cannot create interpreter")
	}
	if status := m.Interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	// The model data is no longer needed as TFLite has created its own internal copy
	runtime.GC()

	log.Info("MSINet model initialized",
		"model_path", m.Settings.Model.Path,
		"labels", m.labels,
		"threads", threads,
		"total_cpus", runtime.NumCPU())

	return nil
}

// determineThreadCount calculates the number of interpreter threads to use.
func (m *MSINet) determineThreadCount(configuredThreads int) int {
	systemCPUCount := runtime.NumCPU()
	if configuredThreads <= 0 || configuredThreads > systemCPUCount {
		return systemCPUCount
	}
	return configuredThreads
}

// Labels returns the class labels in output tensor order.
func (m *MSINet) Labels() []string {
	return m.labels
}

// Delete releases the interpreter resources.
func (m *MSINet) Delete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Interpreter != nil {
		m.Interpreter.Delete()
		m.Interpreter = nil
	}
}
