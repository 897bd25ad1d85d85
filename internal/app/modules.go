package app

import (
	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/modules/clean"
	"github.com/vk/buildgrid/modules/exec"
	"github.com/vk/buildgrid/modules/http_request"
	"github.com/vk/buildgrid/modules/print"
	"github.com/vk/buildgrid/modules/s3"
)

// coreModules is the definitive list of all action modules that are compiled
// into the buildgrid binary.
var coreModules = []actions.Module{
	&exec.Module{},
	&print.Module{},
	&clean.Module{},
	&http_request.Module{},
	&s3.Module{},
}
