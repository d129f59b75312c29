package detector

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/httpclient"
	"github.com/scntm/scanner/internal/model"
)

type realFakeDetector struct {
	name      string
	modes     []config.ScanMode
	active    bool
	passive   []model.Finding
	activeOut []model.Finding
	panicOn   string
}

func (f realFakeDetector) Name() string                 { return f.name }
func (f realFakeDetector) Description() string          { return "fake" }
func (f realFakeDetector) ScanModes() []config.ScanMode  { return f.modes }
func (f realFakeDetector) IsActive() bool                { return f.active }

func (f realFakeDetector) DetectPassive(model.CrawledPage) []model.Finding {
	if f.panicOn == "passive" {
		panic("boom")
	}
	return f.passive
}

func (f realFakeDetector) DetectActive(context.Context, model.CrawledPage, *httpclient.Client) []model.Finding {
	if f.panicOn == "active" {
		panic("boom")
	}
	return f.activeOut
}

func TestForMode_FiltersByModeAndDisabled(t *testing.T) {
	registry = nil
	disabledModules = nil
	Register(realFakeDetector{name: "a", modes: []config.ScanMode{config.ModeQuick}})
	Register(realFakeDetector{name: "b", modes: []config.ScanMode{config.ModeFull}})
	Register(realFakeDetector{name: "c", modes: []config.ScanMode{config.ModeQuick, config.ModeFull}})

	SetDisabledModules([]string{"c"})

	quick := ForMode(config.ModeQuick)
	var names []string
	for _, d := range quick {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"a"}, names)
}

func TestRun_SwallowsPanicAsEmptyFindings(t *testing.T) {
	d := realFakeDetector{name: "panicky", modes: []config.ScanMode{config.ModeQuick}, panicOn: "passive"}
	findings := Run(context.Background(), d, model.CrawledPage{}, nil, zerolog.Nop())
	assert.Empty(t, findings)
}

func TestRun_SkipsActiveWhenNotIsActive(t *testing.T) {
	d := realFakeDetector{name: "passive-only", modes: []config.ScanMode{config.ModeQuick}, active: false, activeOut: []model.Finding{{ModuleName: "x"}}}
	findings := Run(context.Background(), d, model.CrawledPage{}, nil, zerolog.Nop())
	assert.Empty(t, findings)
}

func TestSetCanaryPrefix_OverridesDefault(t *testing.T) {
	original := CanaryPrefix()
	defer SetCanaryPrefix(original)

	SetCanaryPrefix("custom123")
	assert.Equal(t, "custom123", CanaryPrefix())
}
