// Package migrations upgrades older targets files to the current layout.
package migrations

import (
	"strings"

	"gopkg.in/yaml.v3"

	"bmcprobe/internal/domain"
)

// targetsV0 is the unversioned layout, which stored bare BMC hosts.
type targetsV0 struct {
	BMCs []struct {
		Host     string `yaml:"host"`
		Username string `yaml:"username"`
		System   string `yaml:"system,omitempty"`
	} `yaml:"bmcs"`
}

func migrateFromV0(data []byte) ([]domain.Target, error) {
	var legacy targetsV0
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	targets := make([]domain.Target, 0, len(legacy.BMCs))
	for _, bmc := range legacy.BMCs {
		host := strings.TrimSpace(bmc.Host)
		if host == "" {
			continue
		}
		if !strings.Contains(host, "://") {
			host = "https://" + host
		}
		targets = append(targets, domain.Target{
			URL:      strings.TrimRight(host, "/"),
			Username: bmc.Username,
			SystemID: bmc.System,
		})
	}
	return targets, nil
}
