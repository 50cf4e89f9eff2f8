package hclcfg

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes the top-level blocks of one declaration file.
type fileRoot struct {
	Workers []*workerBlock `hcl:"worker,block"`
	Infos   []*infoBlock   `hcl:"capability_info,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// workerBlock is a `worker "name" { ... }` declaration.
type workerBlock struct {
	Name           string             `hcl:"name,label"`
	OnlyIfRequires []string           `hcl:"only_if_requires,optional"`
	Capabilities   []*capabilityBlock `hcl:"capability,block"`
}

// capabilityBlock declares one capability of a worker. A block without
// version sub-blocks is a marker.
type capabilityBlock struct {
	Name     string          `hcl:"name,label"`
	Versions []*versionBlock `hcl:"version,block"`
}

// versionBlock declares one version of a capability with its params.
type versionBlock struct {
	Version string         `hcl:"version,label"`
	Params  hcl.Expression `hcl:"params,optional"`
}

// infoBlock is a `capability_info "name" { ... }` entry of the info table.
type infoBlock struct {
	Name        string         `hcl:"name,label"`
	VersionProp string         `hcl:"version_prop,optional"`
	Abbrev      string         `hcl:"abbrev,optional"`
	Environ     hcl.Expression `hcl:"environ,optional"`
}
