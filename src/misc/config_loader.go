package misc

import (
	"os"

	"gopkg.in/yaml.v3"

	"normasim/src/norma"
)

// ScenarioConfig is the on-disk description of one simulation run: the engine
// geometry plus the streaming workload driven through it.
type ScenarioConfig struct {
	Engine EngineSection `yaml:"engine"`
	Run    RunSection    `yaml:"run"`
}

type EngineSection struct {
	BitWidth       int    `yaml:"bit_width"`
	FracWidth      int    `yaml:"frac_width"`
	Variant        string `yaml:"variant"`
	Stages         int    `yaml:"stages"`
	DictionarySize int    `yaml:"dictionary_size"`
	AlwaysDecay    bool   `yaml:"always_decay"`
}

type RunSection struct {
	Cycles    int     `yaml:"cycles"`
	Dimension int     `yaml:"dimension"`
	Seed      int64   `yaml:"seed"`
	Eta       float64 `yaml:"eta"`
	Nu        float64 `yaml:"nu"`
	Epsilon   float64 `yaml:"epsilon"`
	Forget    float64 `yaml:"forget"`
	Gamma     float64 `yaml:"gamma"`
}

// EngineConfig converts the engine section into the engine's construction
// surface. An unknown variant maps to the zero Kind, which the engine's own
// validation rejects.
func (c *ScenarioConfig) EngineConfig() norma.Config {
	kind, _ := norma.KindFromString(c.Engine.Variant)
	return norma.Config{
		BitWidth:       c.Engine.BitWidth,
		FracWidth:      c.Engine.FracWidth,
		Kind:           kind,
		Stages:         c.Engine.Stages,
		DictionarySize: c.Engine.DictionarySize,
		AlwaysDecay:    c.Engine.AlwaysDecay,
	}
}

type ConfigLoader struct {
	config *ScenarioConfig
}

func (this *ConfigLoader) Init(config_filepath string) {
	data, err := os.ReadFile(config_filepath)
	if err != nil {
		panic(err)
	}

	config := new(ScenarioConfig)
	if err := yaml.Unmarshal(data, config); err != nil {
		panic(err)
	}

	if config.Engine.Variant == "" {
		config.Engine.Variant = string(norma.DefaultKind())
	}

	this.config = config
}

func (this *ConfigLoader) Config() *ScenarioConfig {
	return this.config
}
