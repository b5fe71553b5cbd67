package metrics

import "github.com/kilianp07/dockid/core/factory"

var sinkRegistry = factory.NewRegistry[RunRecorder]()

// RegisterRecorder adds a recorder factory identified by name.
func RegisterRecorder(name string, f factory.Factory[RunRecorder]) error {
	return sinkRegistry.Register(name, f)
}

// NewRunRecorder creates a RunRecorder from the provided configuration.
func NewRunRecorder(cfgs []factory.ModuleConfig) (RunRecorder, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	recs := make([]RunRecorder, len(cfgs))
	for i, c := range cfgs {
		r, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		recs[i] = r
	}
	return NewMultiRecorder(recs...), nil
}
