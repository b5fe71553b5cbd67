package metrics

import (
	"fmt"

	"github.com/kilianp07/dockid/core/factory"
	coremetrics "github.com/kilianp07/dockid/core/metrics"
)

// init registers built-in run recorders.
func init() {
	_ = coremetrics.RegisterRecorder("nop", func(map[string]any) (coremetrics.RunRecorder, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterRecorder("prometheus", func(conf map[string]any) (coremetrics.RunRecorder, error) {
		var c struct {
			Textfile string `json:"textfile"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSink(c.Textfile)
	})

	_ = coremetrics.RegisterRecorder("influx", func(conf map[string]any) (coremetrics.RunRecorder, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" || c.Bucket == "" {
			return nil, fmt.Errorf("influx sink requires url and bucket")
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
