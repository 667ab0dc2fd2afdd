package pdf

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// The service only uses core fonts; keep pdfcpu away from the user config dir.
	api.DisableConfigDir()
}

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu records the running
// command on the configuration, so one is built per call and never shared.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
