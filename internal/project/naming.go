package project

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Labels stamped on every container tug creates.
const (
	LabelProject    = "tug.project"
	LabelService    = "tug.service"
	LabelIndex      = "tug.index"
	LabelOneOff     = "tug.oneoff"
	LabelConfigHash = "tug.config-hash"
)

const oneOffMarker = "_run"

// Ownership ties a container to the project service replica it belongs to.
type Ownership struct {
	Project string
	Service string
	Index   int
	OneOff  bool
}

// ContainerName returns the engine name for this replica.
func (o Ownership) ContainerName() string {
	if o.OneOff {
		return OneOffName(o.Project, o.Service, o.Index)
	}
	return ContainerName(o.Project, o.Service, o.Index)
}

// ContainerName formats a managed replica name: {project}_{service}_{index}.
func ContainerName(project, service string, index int) string {
	return fmt.Sprintf("%s_%s_%d", project, service, index)
}

// OneOffName formats an ad-hoc container name: {project}_{service}_run_{index}.
func OneOffName(project, service string, index int) string {
	return fmt.Sprintf("%s_%s%s_%d", project, service, oneOffMarker, index)
}

// ParseContainerName matches name against the naming convention of every
// known project. When several projects match, the longest project name wins.
func ParseContainerName(name string, projects []string) (Ownership, bool) {
	name = strings.TrimPrefix(name, "/")

	candidates := slices.Clone(projects)
	slices.SortFunc(candidates, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	for _, project := range candidates {
		if project == "" {
			continue
		}
		rest, ok := strings.CutPrefix(name, project+"_")
		if !ok {
			continue
		}
		if owner, ok := parseReplica(rest); ok {
			owner.Project = project
			return owner, true
		}
	}
	return Ownership{}, false
}

func parseReplica(rest string) (Ownership, bool) {
	sep := strings.LastIndexByte(rest, '_')
	if sep <= 0 {
		return Ownership{}, false
	}
	index, err := strconv.Atoi(rest[sep+1:])
	if err != nil || index < 1 {
		return Ownership{}, false
	}

	service := rest[:sep]
	oneOff := false
	if trimmed, ok := strings.CutSuffix(service, oneOffMarker); ok && trimmed != "" {
		service = trimmed
		oneOff = true
	}
	return Ownership{Service: service, Index: index, OneOff: oneOff}, true
}
