package misc

import (
	"errors"
	"fmt"

	"normasim/src/norma"
)

type ConfigValidator struct {
	config_loader *ConfigLoader
}

func (this *ConfigValidator) Init(config_loader *ConfigLoader) {
	this.config_loader = config_loader
}

func (this *ConfigValidator) Validate() {
	config := this.config_loader.Config()
	if config == nil {
		err := errors.New("config has not been loaded")
		panic(err)
	}

	if _, ok := norma.KindFromString(config.Engine.Variant); !ok {
		err := fmt.Errorf("variant %s is not supported", config.Engine.Variant)
		panic(err)
	}

	if err := norma.ValidateConfig(config.EngineConfig()); err != nil {
		panic(err)
	}

	if config.Run.Cycles <= 0 {
		err := errors.New("run cycles <= 0")
		panic(err)
	}

	if config.Run.Dimension <= 0 {
		err := errors.New("run dimension <= 0")
		panic(err)
	}

	if config.Run.Eta <= 0.0 {
		err := errors.New("run eta <= 0")
		panic(err)
	}

	if config.Run.Nu < 0.0 || config.Run.Nu > 1.0 {
		err := errors.New("run nu outside [0, 1]")
		panic(err)
	}

	if config.Run.Forget <= 0.0 || config.Run.Forget > 1.0 {
		err := errors.New("run forget outside (0, 1]")
		panic(err)
	}

	if config.Run.Gamma <= 0.0 {
		err := errors.New("run gamma <= 0")
		panic(err)
	}
}
