package domain

import (
	"strconv"
	"strings"

	"github.com/mssola/useragent"

	m "covhook.dev/pkg/covhook/internal/model"
)

type browserVersion struct {
	major int
	minor int
}

func (v browserVersion) atLeast(floor browserVersion) bool {
	if v.major != floor.major {
		return v.major > floor.major
	}

	return v.minor >= floor.minor
}

// Minimum versions per browser family for each capability. A missing entry
// means the family never supports it.
var capabilityTable = map[string]map[m.Capability]browserVersion{
	"Chrome": {
		m.CapES2015: {49, 0}, m.CapES2016: {58, 0}, m.CapES2017: {58, 0}, m.CapES2018: {64, 0},
		m.CapModules: {64, 0}, m.CapPush: {41, 0}, m.CapServiceWorker: {45, 0},
	},
	"Opera": {
		m.CapES2015: {36, 0}, m.CapES2016: {45, 0}, m.CapES2017: {45, 0}, m.CapES2018: {51, 0},
		m.CapModules: {48, 0}, m.CapPush: {28, 0}, m.CapServiceWorker: {32, 0},
	},
	"Edge": {
		m.CapES2015: {15, 15063}, m.CapES2016: {15, 15063}, m.CapES2017: {15, 15063},
		m.CapModules: {16, 0}, m.CapPush: {15, 15063}, m.CapServiceWorker: {17, 0},
	},
	"Safari": {
		m.CapES2015: {10, 0}, m.CapES2016: {10, 1}, m.CapES2017: {10, 1}, m.CapES2018: {11, 1},
		m.CapModules: {11, 0}, m.CapPush: {9, 0}, m.CapServiceWorker: {11, 1},
	},
	"Firefox": {
		m.CapES2015: {51, 0}, m.CapES2016: {52, 0}, m.CapES2017: {52, 0}, m.CapES2018: {58, 0},
		m.CapModules: {60, 0}, m.CapServiceWorker: {44, 0},
	},
}

// Chromium-based Edge reports itself as Edge with a Chrome-aligned version.
const chromiumEdgeMajor = 79

// DetectCapabilities derives a capability profile from a user-agent string.
// Unknown browsers get an empty profile.
func DetectCapabilities(userAgent string) m.Capabilities {
	caps := m.NewCapabilities()
	if strings.TrimSpace(userAgent) == "" {
		return caps
	}

	ua := useragent.New(userAgent)
	if ua.Bot() {
		return caps
	}

	name, version := ua.Browser()
	parsed := parseBrowserVersion(version)

	if name == "Edge" && parsed.major >= chromiumEdgeMajor {
		name = "Chrome"
	}

	if name == "Chromium" {
		name = "Chrome"
	}

	table, ok := capabilityTable[name]
	if !ok {
		return caps
	}

	for capability, floor := range table {
		if parsed.atLeast(floor) {
			caps[capability] = struct{}{}
		}
	}

	return caps
}

func parseBrowserVersion(version string) browserVersion {
	parts := strings.SplitN(version, ".", 3)

	var v browserVersion

	if len(parts) > 0 {
		v.major, _ = strconv.Atoi(parts[0])
	}

	if len(parts) > 1 {
		v.minor, _ = strconv.Atoi(parts[1])
	}

	return v
}
