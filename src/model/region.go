// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package model

import "fmt"

// Region selects which vendor deployment the client talks to. The
// China deployment runs on its own domain; every other region shares
// the global one.
type Region string

const (
	RegionChina        Region = "china"
	RegionEurope       Region = "europe"
	RegionNorthAmerica Region = "north-america"
	RegionAsiaPacific  Region = "asia-pacific"
	RegionOther        Region = "other"
)

// ParseRegion maps a config string to a Region.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionChina, RegionEurope, RegionNorthAmerica, RegionAsiaPacific, RegionOther:
		return Region(s), nil
	case "":
		return RegionOther, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}

func (r Region) IsChina() bool {
	return r == RegionChina
}

// BaseURL returns the API origin for the region.
func (r Region) BaseURL() string {
	if r.IsChina() {
		return "https://api.bambulab.cn"
	}
	return "https://api.bambulab.com"
}

// MQTTHost returns the MQTT broker host for the region.
func (r Region) MQTTHost() string {
	if r.IsChina() {
		return "cn.mqtt.bambulab.com"
	}
	return "us.mqtt.bambulab.com"
}
