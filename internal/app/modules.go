package app

import (
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/delay"
	"github.com/vk/flowgridgo/modules/envvars"
	"github.com/vk/flowgridgo/modules/httpfetch"
	"github.com/vk/flowgridgo/modules/notify"
	"github.com/vk/flowgridgo/modules/printer"
)

// coreModules is the definitive list of all action modules that are compiled
// into the flowgridgo binary.
var coreModules = []registry.Module{
	&delay.Module{},
	&envvars.Module{},
	&httpfetch.Module{},
	&notify.Module{},
	&printer.Module{},
}
